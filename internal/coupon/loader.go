package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// FormTimeLayout is the admin form's datetime-local layout
const FormTimeLayout = "2006-01-02T15:04"

// Record is a coupon as written in a registry file or an admin request
type Record struct {
	ID             string              `yaml:"id,omitempty" json:"id,omitempty"`
	Code           string              `yaml:"code" json:"code"`
	Description    string              `yaml:"description,omitempty" json:"description,omitempty"`
	Type           string              `yaml:"type" json:"type"`
	DiscountValue  decimal.Decimal     `yaml:"discountValue" json:"discountValue"`
	MaxDiscount    decimal.NullDecimal `yaml:"maxDiscount,omitempty" json:"maxDiscount,omitempty"`
	MinOrderAmount decimal.Decimal     `yaml:"minOrderAmount" json:"minOrderAmount"`
	UsageLimit     *int                `yaml:"usageLimit,omitempty" json:"usageLimit,omitempty"`
	UsedCount      int                 `yaml:"usedCount" json:"usedCount"`
	ValidFrom      string              `yaml:"validFrom" json:"validFrom"`
	ValidUntil     string              `yaml:"validUntil" json:"validUntil"`
	IsActive       *bool               `yaml:"isActive,omitempty" json:"isActive,omitempty"`
	FirstTimeOnly  bool                `yaml:"firstTimeOnly" json:"firstTimeOnly"`
}

// File is the top-level document of a registry file
type File struct {
	Coupons []Record `yaml:"coupons" json:"coupons"`
}

// fileLoadResult holds the result of loading a single file
type fileLoadResult struct {
	index   int
	records []Record
	err     error
}

// ParseTime accepts RFC3339 or the admin form layout (interpreted as UTC)
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(FormTimeLayout, s)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid timestamp %q: want RFC3339 or %s", s, FormTimeLayout)
	}
	return t, nil
}

// Input converts the record into registry input
func (r Record) Input() (Input, error) {
	from, err := ParseTime(r.ValidFrom)
	if err != nil {
		return Input{}, errors.Wrapf(err, "%s: validFrom", r.Code)
	}
	until, err := ParseTime(r.ValidUntil)
	if err != nil {
		return Input{}, errors.Wrapf(err, "%s: validUntil", r.Code)
	}

	in := Input{
		Code:           r.Code,
		Description:    r.Description,
		Type:           discount.Type(r.Type),
		DiscountValue:  r.DiscountValue,
		MaxDiscount:    r.MaxDiscount,
		MinOrderAmount: r.MinOrderAmount,
		UsageLimit:     r.UsageLimit,
		ValidFrom:      from,
		ValidUntil:     until,
		IsActive:       r.IsActive == nil || *r.IsActive,
		FirstTimeOnly:  r.FirstTimeOnly,
	}
	return in, nil
}

// ReadFile parses a registry document. Gzip input is detected from its magic bytes.
func ReadFile(r io.Reader) (File, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gzReader, err := gzip.NewReader(br)
		if err != nil {
			return File{}, errors.Wrap(err, "create gzip reader")
		}
		defer gzReader.Close()
		src = gzReader
	}

	var f File
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, errors.Wrap(err, "decode registry file")
	}
	return f, nil
}

// LoadFiles reads registry files from local paths or http(s) URLs concurrently.
// Records are returned in file order; any failing file fails the whole load.
func LoadFiles(ctx context.Context, sources []string) ([]Record, error) {
	if len(sources) == 0 {
		return nil, errors.New("no registry files provided")
	}

	resultChan := make(chan fileLoadResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()

			records, err := loadSource(ctx, source)
			resultChan <- fileLoadResult{index: index, records: records, err: err}
		}(i, src)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]fileLoadResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	var records []Record
	for i, result := range results {
		if result.err != nil {
			return nil, errors.Wrapf(result.err, "load %s", sources[i])
		}
		records = append(records, result.records...)
	}
	return records, nil
}

func loadSource(ctx context.Context, source string) ([]Record, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		rc, err := fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		body = rc
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, errors.Wrap(err, "open registry file")
		}
		body = f
	}
	defer body.Close()

	f, err := ReadFile(body)
	if err != nil {
		return nil, err
	}
	return f.Coupons, nil
}

func fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download registry file")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Seed creates every record in the registry. Records whose code already exists
// are skipped so seeding is idempotent across restarts of a persistent store.
func Seed(ctx context.Context, reg *Registry, records []Record) (int, error) {
	created := 0
	for _, r := range records {
		in, err := r.Input()
		if err != nil {
			return created, err
		}
		_, err = reg.create(ctx, in, r.ID, r.UsedCount)
		if errors.Is(err, ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return created, errors.Wrapf(err, "seed %s", r.Code)
		}
		created++
	}
	return created, nil
}

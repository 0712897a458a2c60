package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/heritage-handlooms/checkout-api/internal/config"
	"github.com/heritage-handlooms/checkout-api/internal/coupon"
	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

type quoteFlags struct {
	registry    []string
	code        string
	subtotal    string
	priorOrders bool
	at          string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs couponctl and returns its exit code. Every error is reported on
// stderr since the root command silences cobra's own printing.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, "Error:", err)

	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "couponctl",
		Short:         "Inspect and check coupon registry files",
		Long:          "couponctl lints coupon registry files, reports coupon status and prices a subtotal against a code offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	lintCmd := &cobra.Command{
		Use:   "lint <file>...",
		Short: "Validate registry files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	var statusAt string
	statusCmd := &cobra.Command{
		Use:   "status <file>...",
		Short: "Show the lifecycle status of every coupon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), args, statusAt)
		},
	}
	statusCmd.Flags().StringVar(&statusAt, "at", "", "Evaluate at this time (RFC3339 or "+coupon.FormTimeLayout+"), default now")

	var qf quoteFlags
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a subtotal with a coupon code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd.Context(), cmd.OutOrStdout(), qf)
		},
	}
	f := quoteCmd.Flags()
	f.StringArrayVar(&qf.registry, "registry", nil, "Registry file path or URL (may be repeated)")
	f.StringVar(&qf.code, "code", "", "Coupon code")
	f.StringVar(&qf.subtotal, "subtotal", "", "Order subtotal in rupees")
	f.BoolVar(&qf.priorOrders, "prior-orders", false, "Customer has placed orders before")
	f.StringVar(&qf.at, "at", "", "Evaluate at this time (RFC3339 or "+coupon.FormTimeLayout+"), default now")
	_ = quoteCmd.MarkFlagRequired("registry")
	_ = quoteCmd.MarkFlagRequired("code")
	_ = quoteCmd.MarkFlagRequired("subtotal")

	var count int
	genCmd := &cobra.Command{
		Use:   "gen-code",
		Short: "Generate random coupon codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenCode(cmd.OutOrStdout(), count)
		},
	}
	genCmd.Flags().IntVarP(&count, "count", "n", 1, "Number of codes")

	root.AddCommand(lintCmd, statusCmd, quoteCmd, genCmd)
	return root
}

func runLint(ctx context.Context, out io.Writer, sources []string) error {
	records, err := coupon.LoadFiles(ctx, sources)
	if err != nil {
		return codeError(3, "loading registry: %s", err)
	}

	reg := coupon.NewRegistry(coupon.NewMemoryStore(uint(len(records))))
	problems := 0
	for i, r := range records {
		if err := lintRecord(ctx, reg, r); err != nil {
			problems++
			fmt.Fprintf(out, "FAIL  #%d %s: %s\n", i+1, r.Code, err)
			continue
		}
		fmt.Fprintf(out, "ok    #%d %s\n", i+1, discount.NormalizeCode(r.Code))
	}

	fmt.Fprintf(out, "%d coupons, %d problems\n", len(records), problems)
	if problems > 0 {
		return codeError(2, "%d invalid coupon records", problems)
	}
	return nil
}

func lintRecord(ctx context.Context, reg *coupon.Registry, r coupon.Record) error {
	in, err := r.Input()
	if err != nil {
		return err
	}
	if r.UsedCount < 0 {
		return fmt.Errorf("usedCount must not be negative")
	}
	if in.UsageLimit != nil && r.UsedCount > *in.UsageLimit {
		return fmt.Errorf("usedCount %d exceeds usageLimit %d", r.UsedCount, *in.UsageLimit)
	}
	if _, err := reg.Create(ctx, in); err != nil {
		if errors.Is(err, coupon.ErrDuplicateCode) {
			return fmt.Errorf("duplicate code")
		}
		return err
	}
	return nil
}

// loadRegistry seeds an in-memory store from the registry files
func loadRegistry(ctx context.Context, sources []string) (coupon.Store, error) {
	records, err := coupon.LoadFiles(ctx, sources)
	if err != nil {
		return nil, err
	}
	store := coupon.NewMemoryStore(uint(len(records)))
	if _, err := coupon.Seed(ctx, coupon.NewRegistry(store), records); err != nil {
		return nil, err
	}
	return store, nil
}

func evaluationTime(at string) (time.Time, error) {
	if at == "" {
		return time.Now().UTC(), nil
	}
	return coupon.ParseTime(at)
}

func runStatus(ctx context.Context, out io.Writer, sources []string, at string) error {
	now, err := evaluationTime(at)
	if err != nil {
		return codeError(3, "invalid --at: %s", err)
	}
	store, err := loadRegistry(ctx, sources)
	if err != nil {
		return codeError(3, "loading registry: %s", err)
	}
	coupons, err := store.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tTYPE\tSTATUS\tUSED\tVALID UNTIL")
	for _, c := range coupons {
		limit := "∞"
		if c.UsageLimit != nil {
			limit = strconv.Itoa(*c.UsageLimit)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%s\t%s\n",
			c.Code, c.Type, coupon.StatusOf(c, now), c.UsedCount, limit, c.ValidUntil.Format(coupon.FormTimeLayout))
	}
	return tw.Flush()
}

func runQuote(ctx context.Context, out io.Writer, flags quoteFlags) error {
	subtotal, err := decimal.NewFromString(flags.subtotal)
	if err != nil || subtotal.IsNegative() {
		return codeError(3, "invalid --subtotal %q", flags.subtotal)
	}
	now, err := evaluationTime(flags.at)
	if err != nil {
		return codeError(3, "invalid --at: %s", err)
	}
	store, err := loadRegistry(ctx, flags.registry)
	if err != nil {
		return codeError(3, "loading registry: %s", err)
	}

	c, d, err := coupon.NewValidator(store, nil).Validate(ctx, flags.code, subtotal, now, flags.priorOrders)
	if reason := discount.ReasonOf(err); reason != discount.ReasonNone {
		fmt.Fprintf(out, "rejected: %s (%s)\n", reason.Message(), reason)
		return codeError(2, "coupon %s rejected: %s", discount.NormalizeCode(flags.code), reason)
	}
	if err != nil {
		return err
	}

	pricing, err := pricingFromEnv()
	if err != nil {
		return codeError(3, "%s", err)
	}
	q := pricing.Quote(subtotal, &d)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "coupon\t%s\t\n", c.Code)
	fmt.Fprintf(tw, "subtotal\t%s\t\n", q.Subtotal.StringFixed(2))
	fmt.Fprintf(tw, "discount\t-%s\t\n", q.Discount.StringFixed(2))
	fmt.Fprintf(tw, "shipping\t%s\t\n", q.ShippingFee.StringFixed(2))
	fmt.Fprintf(tw, "tax\t%s\t\n", q.Tax.StringFixed(2))
	fmt.Fprintf(tw, "total\t%s\t\n", q.Total.StringFixed(2))
	return tw.Flush()
}

// pricingFromEnv uses the server's pricing configuration so offline quotes
// match the API
func pricingFromEnv() (discount.Pricing, error) {
	cfg, err := config.Load()
	if err != nil {
		return discount.Pricing{}, err
	}
	return cfg.Pricing, nil
}

func runGenCode(out io.Writer, n int) error {
	if n < 1 {
		return codeError(3, "--count must be at least 1")
	}
	for i := 0; i < n; i++ {
		code, err := coupon.GenerateCode()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, code)
	}
	return nil
}

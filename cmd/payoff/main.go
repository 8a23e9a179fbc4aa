// Command payoff runs the debt payoff simulator over a JSON file of debts.
//
//	payoff -debts debts.json -payment 500 -strategy avalanche
//
// The file holds an array of {"id","name","balance","apr","currency","color"}
// objects, the same shape the DebtService returns.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/mmynk/debtwise/internal/calculator"
	"github.com/mmynk/debtwise/internal/money"
	"github.com/mmynk/debtwise/pkg/api"
	"github.com/mmynk/debtwise/pkg/clock"
	"github.com/mmynk/debtwise/pkg/logging"
)

func main() {
	logging.Setup()
	if err := run(os.Args[1:], os.Stdout, clock.Real{}); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Payoff failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	debtsPath   string
	payment     float64
	strategy    string
	frequency   string
	occurrences int
	mode        string
	schedule    bool
	compare     bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("payoff", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.debtsPath, "debts", "", "path to a JSON array of debts (required)")
	fs.Float64Var(&opts.payment, "payment", 0, "payment per occurrence, or the lump sum in immediate mode")
	fs.StringVar(&opts.strategy, "strategy", string(calculator.Avalanche), "avalanche, snowball or proportional")
	fs.StringVar(&opts.frequency, "frequency", string(calculator.Monthly), "daily, weekly, biweekly or monthly")
	fs.IntVar(&opts.occurrences, "occurrences", 1, "payments per period")
	fs.StringVar(&opts.mode, "mode", string(calculator.ModePlan), "plan or immediate")
	fs.BoolVar(&opts.schedule, "schedule", false, "print the per-period schedule")
	fs.BoolVar(&opts.compare, "compare", false, "compare every strategy instead of running one")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.debtsPath == "" {
		return opts, errors.New("-debts is required")
	}
	if !calculator.Strategy(opts.strategy).Valid() {
		return opts, fmt.Errorf("unknown strategy %q", opts.strategy)
	}
	switch calculator.Frequency(opts.frequency) {
	case calculator.Daily, calculator.Weekly, calculator.BiWeekly, calculator.Monthly:
	default:
		return opts, fmt.Errorf("unknown frequency %q", opts.frequency)
	}
	switch calculator.Mode(opts.mode) {
	case calculator.ModePlan, calculator.ModeImmediate:
	default:
		return opts, fmt.Errorf("unknown mode %q", opts.mode)
	}
	if math.IsNaN(opts.payment) || math.IsInf(opts.payment, 0) || opts.payment < 0 {
		return opts, errors.New("-payment must be a non-negative number")
	}
	return opts, nil
}

func run(args []string, out io.Writer, clk clock.Clock) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	debts, currency, err := loadDebts(opts.debtsPath)
	if err != nil {
		return err
	}
	slog.Debug("Debts loaded", "count", len(debts), "path", opts.debtsPath)

	params := calculator.Params{
		Mode:                 calculator.Mode(opts.mode),
		Strategy:             calculator.Strategy(opts.strategy),
		PaymentPerOccurrence: opts.payment,
		OccurrencesPerPeriod: opts.occurrences,
		Frequency:            calculator.Frequency(opts.frequency),
		Start:                clk.Now(),
		RecordSchedule:       opts.schedule,
	}

	if opts.compare {
		printComparison(out, calculator.CompareStrategies(debts, params), currency)
		return nil
	}

	result := calculator.Simulate(debts, params)
	printResult(out, result, currency)
	if opts.schedule && len(result.Schedule) > 0 {
		fmt.Fprintln(out)
		printSchedule(out, result, currency)
	}
	return nil
}

// loadDebts reads the debt file and returns the shared currency.
func loadDebts(path string) ([]calculator.Debt, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read debts file: %w", err)
	}
	var records []api.Debt
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, "", fmt.Errorf("failed to parse debts file: %w", err)
	}

	currency := ""
	debts := make([]calculator.Debt, 0, len(records))
	for i, r := range records {
		if r.Balance < 0 || r.APR < 0 {
			return nil, "", fmt.Errorf("debt %d (%s): balance and APR must not be negative", i, r.Name)
		}
		if r.Currency == "" {
			r.Currency = "USD"
		}
		if currency == "" {
			currency = r.Currency
		} else if r.Currency != currency {
			return nil, "", fmt.Errorf("debt %d (%s): currency %s does not match %s", i, r.Name, r.Currency, currency)
		}
		id := r.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		debts = append(debts, calculator.Debt{
			ID:             id,
			Name:           r.Name,
			CurrentBalance: r.Balance,
			APR:            r.APR,
			Currency:       r.Currency,
			DisplayColor:   r.Color,
		})
	}
	return debts, currency, nil
}

func occurrencesLabel(r calculator.Result) string {
	switch {
	case r.TotalOccurrences == nil:
		return "-"
	case r.Insufficient():
		return "insufficient payment"
	case r.DidNotConverge:
		return fmt.Sprintf("%d (not paid off)", *r.TotalOccurrences)
	default:
		return strconv.Itoa(*r.TotalOccurrences)
	}
}

func printResult(out io.Writer, r calculator.Result, currency string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Starting balance\t%s\n", money.Format(r.StartingBalance, currency))
	fmt.Fprintf(tw, "Occurrences\t%s\n", occurrencesLabel(r))
	fmt.Fprintf(tw, "Total interest\t%s\n", money.Format(r.TotalInterestPaid, currency))
	fmt.Fprintf(tw, "Total paid\t%s\n", money.Format(r.TotalPaid, currency))
	fmt.Fprintf(tw, "Remaining\t%s\n", money.Format(r.RemainingBalance, currency))
	if r.PayoffDate != nil {
		fmt.Fprintf(tw, "Payoff date\t%s\n", r.PayoffDate.Format("2006-01-02"))
	}
	tw.Flush()

	if len(r.Debts) == 0 {
		return
	}
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Debt\tOriginal\tInterest\tPaid\tFinal\tPaid off at\t")
	for _, d := range r.Debts {
		payoff := "-"
		if d.PayoffOccurrence != nil {
			payoff = strconv.Itoa(*d.PayoffOccurrence)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", d.DebtName,
			money.Format(d.OriginalBalance, currency),
			money.Format(d.InterestPaid, currency),
			money.Format(d.TotalPaid, currency),
			money.Format(d.FinalBalance, currency),
			payoff)
	}
	tw.Flush()
}

func printSchedule(out io.Writer, r calculator.Result, currency string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tDate\tInterest\tPaid\tRemaining\t")
	for _, p := range r.Schedule {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", p.Occurrence, p.Date.Format("2006-01-02"),
			money.Format(p.Interest, currency),
			money.Format(p.Paid, currency),
			money.Format(p.RemainingBalance, currency))
	}
	tw.Flush()
}

func printComparison(out io.Writer, c calculator.Comparison, currency string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Strategy\tOccurrences\tInterest\tTotal paid\t")
	for _, o := range c.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", o.Strategy, occurrencesLabel(o.Result),
			money.Format(o.Result.TotalInterestPaid, currency),
			money.Format(o.Result.TotalPaid, currency))
	}
	tw.Flush()

	if c.Recommended == "" {
		fmt.Fprintln(out, "\nNo strategy pays these debts off with this payment.")
		return
	}
	fmt.Fprintf(out, "\nRecommended: %s (saves %s interest and %d occurrences over the worst option)\n",
		c.Recommended, money.Format(c.InterestSaved, currency), c.OccurrencesSaved)
}

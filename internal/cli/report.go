package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/subcommands"

	"finanzas/internal/services/advisor"
	"finanzas/internal/services/metrics"
)

type summaryCmd struct {
	categories bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show balance, income and expense totals" }
func (*summaryCmd) Usage() string {
	return `finanzas summary [-c]
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.categories, "c", false, "also break expenses down by category")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	s := book.Summary()
	balance := balanceStyle
	if s.Balance.IsNegative() {
		balance = expenseStyle.Bold(true)
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render("Balance Total\n"+balance.Render(s.Balance.String())),
		boxStyle.Render("Ingresos Totales\n"+incomeStyle.Render(s.TotalIncome.String())),
		boxStyle.Render("Gastos Totales\n"+expenseStyle.Render(s.TotalExpense.String())),
	)
	fmt.Fprintln(stdout, cards)
	fmt.Fprintf(stdout, "Ahorro: %.0f%%  Gastos/Ingresos: %.0f%%\n", metrics.SavingsRate(s), metrics.ExpenseRatio(s))

	if c.categories {
		var b strings.Builder
		for _, cat := range metrics.CategoryBreakdown(book.Set()) {
			fmt.Fprintf(&b, "%-20s %12s %5.1f%%\n", cat.Category, cat.Amount, cat.Percentage)
		}
		fmt.Fprint(stdout, b.String())
	}
	return subcommands.ExitSuccess
}

type adviceCmd struct{}

func (*adviceCmd) Name() string     { return "advice" }
func (*adviceCmd) Synopsis() string { return "print the advisor's reading of your finances" }
func (*adviceCmd) Usage() string {
	return `finanzas advice
`
}
func (*adviceCmd) SetFlags(*flag.FlagSet) {}

func (c *adviceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	summary, set := book.Snapshot()
	printMarkdown(advisor.Build(summary, set, time.Now()))
	return subcommands.ExitSuccess
}

package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/subcommands"

	"finanzas/internal/models"
	"finanzas/internal/services/form"
)

var (
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f43f5e"))
	balanceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6366f1")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

func amountStyle(tt models.TransactionType) lipgloss.Style {
	if tt == models.Income {
		return incomeStyle
	}
	return expenseStyle
}

type addCmd struct {
	income bool
	date   string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an income or an expense" }
func (*addCmd) Usage() string {
	return `finanzas add [-income] [-d <YYYY-MM-DD>] <amount> <description...>

  Records a transaction. Expenses are the default.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.income, "income", false, "record an income instead of an expense")
	f.StringVar(&c.date, "d", "", "transaction date (defaults to today)")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	fm := form.New()
	if c.income {
		fm.SetType(string(models.Income))
	}
	fm.SetAmount(f.Arg(0))
	fm.SetDescription(strings.Join(f.Args()[1:], " "))

	t, err := fm.Submit(time.Now())
	if err != nil {
		if errors.Is(err, form.ErrInvalidAmount) {
			return fail(errors.New(form.InvalidAmountMessage))
		}
		return fail(err)
	}
	if c.date != "" {
		d, err := models.ParseDate(c.date)
		if err != nil {
			return fail(err)
		}
		t.Date = d
	}

	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	if err := book.Add(ctx, t); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "%s %s %s (%s)\n", t.Type.Label(), amountStyle(t.Type).Render(t.Signed().Signed()), t.Description, t.ID)
	return subcommands.ExitSuccess
}

type listCmd struct {
	limit int
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "show the transaction history, newest first" }
func (*listCmd) Usage() string {
	return `finanzas list [-n <count>]
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 0, "show at most n transactions")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	txs := book.Set().Reverse().Transactions
	if len(txs) == 0 {
		fmt.Fprintln(stdout, "No hay transacciones aún.")
		return subcommands.ExitSuccess
	}
	if c.limit > 0 && len(txs) > c.limit {
		txs = txs[:c.limit]
	}
	fmt.Fprintln(stdout, transactionTable(txs))
	return subcommands.ExitSuccess
}

func transactionTable(txs []models.Transaction) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Fecha", "Descripción", "Categoría", "Monto", "ID").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 {
				return amountStyle(txs[row].Type).Padding(0, 1)
			}
			return cellStyle
		})
	for _, tx := range txs {
		t.Row(tx.Date.Display(), tx.Description, tx.Category, tx.Signed().String(), tx.ID)
	}
	return t.String()
}

type deleteCmd struct{}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a transaction by id" }
func (*deleteCmd) Usage() string {
	return `finanzas delete <id>
`
}
func (*deleteCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	before := book.Len()
	if err := book.Delete(ctx, f.Arg(0)); err != nil {
		return fail(err)
	}
	if book.Len() == before {
		fmt.Fprintf(stdout, "No existe la transacción %s\n", f.Arg(0))
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(stdout, "Transacción %s eliminada\n", f.Arg(0))
	return subcommands.ExitSuccess
}

type clearCmd struct {
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "delete every transaction" }
func (*clearCmd) Usage() string {
	return `finanzas clear [-yes]

  Asks for confirmation unless -yes is given.
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "skip the confirmation")
}

func (c *clearCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	if !c.yes {
		fmt.Fprintf(stdout, "¿Estás seguro? Se borrarán %d transacciones [s/N] ", book.Len())
		answer, err := readLine()
		if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "s") {
			fmt.Fprintln(stdout, "Cancelado")
			return subcommands.ExitSuccess
		}
	}

	if err := book.ClearAll(ctx); err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "Todas las transacciones fueron borradas")
	return subcommands.ExitSuccess
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"

	"finanzas/internal/log"
	"finanzas/internal/models"
	"finanzas/internal/services/dataloader"
	"finanzas/internal/services/exporter"
	"finanzas/internal/services/storage"
	"finanzas/internal/version"
)

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the history to an Excel workbook" }
func (*exportCmd) Usage() string {
	return `finanzas export [-o <file.xlsx>]

  Defaults to historial_financiero_<today>.xlsx in the current directory.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	wb, err := exporter.Workbook(book.Transactions())
	if errors.Is(err, exporter.ErrNothingToExport) {
		fmt.Fprintln(stdout, exporter.NothingToExportMessage)
		return subcommands.ExitSuccess
	}
	if err != nil {
		return fail(err)
	}
	defer wb.Close()

	path := c.output
	if path == "" {
		path = exporter.Filename(time.Now())
	}
	if err := wb.SaveAs(path); err != nil {
		return fail(fmt.Errorf("save %s: %w", path, err))
	}
	fmt.Fprintf(stdout, "%d transacciones exportadas a %s\n", book.Len(), path)
	return subcommands.ExitSuccess
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a bank CSV statement" }
func (*importCmd) Usage() string {
	return `finanzas import <file.csv>...

  Rows already present are skipped, as are transfers between accounts.
`
}
func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	loader := dataloader.New(newLogger(cfg).WithComponent(log.ComponentImport))
	for _, path := range f.Args() {
		file, err := os.Open(path)
		if err != nil {
			return fail(err)
		}
		res, err := loader.Load(file, filepath.Base(path), book.Set().Hashes())
		file.Close()
		if err != nil {
			return fail(fmt.Errorf("%s: %w", path, err))
		}
		if err := book.Append(ctx, res.Transactions); err != nil {
			return fail(err)
		}
		fmt.Fprintf(stdout, "%s: %d importadas, %d duplicadas, %d transferencias omitidas, %d inválidas\n",
			filepath.Base(path), len(res.Transactions), res.Duplicates, res.Transfers, res.Invalid)
	}
	return subcommands.ExitSuccess
}

type backupCmd struct {
	output string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "write the raw transaction array as JSON" }
func (*backupCmd) Usage() string {
	return `finanzas backup [-o <file.json>]

  Writes to standard output unless -o is given.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file")
}

func (c *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	data, err := json.MarshalIndent(book.Transactions(), "", "  ")
	if err != nil {
		return fail(err)
	}
	if c.output == "" {
		fmt.Fprintln(stdout, string(data))
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(c.output, data, 0600); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "%d transacciones guardadas en %s\n", book.Len(), c.output)
	return subcommands.ExitSuccess
}

type restoreCmd struct{}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace every transaction with a JSON backup" }
func (*restoreCmd) Usage() string {
	return `finanzas restore <file.json>
`
}
func (*restoreCmd) SetFlags(*flag.FlagSet) {}

func (c *restoreCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	var txs []models.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return fail(fmt.Errorf("invalid backup: %w", err))
	}

	book, done, err := openLedger(ctx)
	if err != nil {
		return fail(err)
	}
	defer done()

	if txs == nil {
		txs = []models.Transaction{}
	}
	if err := book.Replace(ctx, txs); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "%d transacciones restauradas\n", len(txs))
	return subcommands.ExitSuccess
}

// fileStore opens the file backend directly; encryption only applies there
func fileStore() (*storage.FileStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.StorageBackend != storage.BackendFile {
		return nil, fmt.Errorf("encryption needs the file backend, not %q", cfg.StorageBackend)
	}
	return storage.NewFileStore(cfg.DataDirectory)
}

// newPassword asks twice unless FINANZAS_ENCRYPT_PASSWORD is set
func newPassword() (string, error) {
	if p := os.Getenv("FINANZAS_ENCRYPT_PASSWORD"); p != "" {
		return p, nil
	}
	first, err := readPassword("Nueva contraseña: ")
	if err != nil {
		return "", err
	}
	second, err := readPassword("Repite la contraseña: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

type encryptCmd struct{}

func (*encryptCmd) Name() string     { return "encrypt" }
func (*encryptCmd) Synopsis() string { return "encrypt the data directory with a password" }
func (*encryptCmd) Usage() string {
	return `finanzas encrypt
`
}
func (*encryptCmd) SetFlags(*flag.FlagSet) {}

func (c *encryptCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fs, err := fileStore()
	if err != nil {
		return fail(err)
	}
	if fs.IsEncrypted() {
		fmt.Fprintln(stdout, "Los datos ya están cifrados")
		return subcommands.ExitSuccess
	}
	password, err := newPassword()
	if err != nil {
		return fail(err)
	}
	if err := fs.EnableEncryption(password); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Datos cifrados en %s\n", fs.Dir())
	return subcommands.ExitSuccess
}

type decryptCmd struct{}

func (*decryptCmd) Name() string     { return "decrypt" }
func (*decryptCmd) Synopsis() string { return "remove encryption from the data directory" }
func (*decryptCmd) Usage() string {
	return `finanzas decrypt
`
}
func (*decryptCmd) SetFlags(*flag.FlagSet) {}

func (c *decryptCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fs, err := fileStore()
	if err != nil {
		return fail(err)
	}
	if !fs.IsEncrypted() {
		fmt.Fprintln(stdout, "Los datos no están cifrados")
		return subcommands.ExitSuccess
	}
	password := os.Getenv("FINANZAS_ENCRYPT_PASSWORD")
	if password == "" {
		if password, err = readPassword("Contraseña: "); err != nil {
			return fail(err)
		}
	}
	if err := fs.DisableEncryption(password); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Cifrado eliminado en %s\n", fs.Dir())
	return subcommands.ExitSuccess
}

type versionCmd struct{}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print build information" }
func (*versionCmd) Usage() string {
	return `finanzas version
`
}
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	info := version.Get()
	fmt.Fprintln(stdout, info.String())
	if warning := info.Check(); warning != "" {
		fmt.Fprintln(stdout, warning)
	}
	return subcommands.ExitSuccess
}

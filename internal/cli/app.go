// Package cli implements the finanzas command line: the same ledger the web
// dashboard uses, driven from a terminal.
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"golang.org/x/term"

	"finanzas/internal/config"
	"finanzas/internal/log"
	"finanzas/internal/services/ledger"
	"finanzas/internal/services/storage"
)

var dataDir = flag.String("data", "", "Data directory (overrides FINANZAS_DATA_DIR)")

// Output and input streams, swapped by tests
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
	input  *bufio.Reader
)

type group struct {
	name     string
	commands []subcommands.Command
}

func groups() []group {
	return []group{
		{"transactions", []subcommands.Command{&addCmd{}, &listCmd{}, &deleteCmd{}, &clearCmd{}}},
		{"reports", []subcommands.Command{&summaryCmd{}, &adviceCmd{}}},
		{"files", []subcommands.Command{&exportCmd{}, &importCmd{}, &backupCmd{}, &restoreCmd{}}},
		{"storage", []subcommands.Command{&encryptCmd{}, &decryptCmd{}}},
		{"", []subcommands.Command{&versionCmd{}}},
	}
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	for _, g := range groups() {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
}

// loadConfig reads the environment and applies the -data flag
func loadConfig() (*config.Config, error) {
	config.LoadEnvFile()
	cfg := config.Load()
	if *dataDir != "" {
		cfg.DataDirectory = *dataDir
		if os.Getenv("FINANZAS_SQLITE_PATH") == "" {
			cfg.SQLitePath = filepath.Join(*dataDir, "finanzas.db")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger keeps the terminal quiet unless a level is asked for
func newLogger(cfg *config.Config) *log.Logger {
	lc := cfg.LogConfig(log.ComponentCLI)
	if os.Getenv("FINANZAS_LOG_LEVEL") == "" && !cfg.Debug {
		lc.Level = slog.LevelWarn
	}
	return log.New(lc)
}

// openStore opens the configured backend, unlocking it when encrypted
func openStore(cfg *config.Config) (storage.KeyValue, error) {
	kv, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if fs, ok := kv.(*storage.FileStore); ok && fs.IsEncrypted() {
		password := cfg.EncryptPassword
		if password == "" {
			if password, err = readPassword("Contraseña: "); err != nil {
				kv.Close()
				return nil, err
			}
		}
		if err := fs.Unlock(password); err != nil {
			kv.Close()
			return nil, fmt.Errorf("unlock data directory: %w", err)
		}
	}
	return kv, nil
}

// openLedger loads the ledger. The returned func closes the store.
func openLedger(ctx context.Context) (*ledger.Ledger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	kv, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	book, err := ledger.New(ctx, kv, newLogger(cfg))
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	return book, func() { kv.Close() }, nil
}

// readPassword reads without echo on a terminal, or one line otherwise
func readPassword(prompt string) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	return readLine()
}

func readLine() (string, error) {
	if input == nil {
		input = bufio.NewReader(stdin)
	}
	line, err := input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// isTerminal reports whether stdout is an interactive terminal
func isTerminal() bool {
	f, ok := stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printMarkdown renders md for the terminal, falling back to the raw text
func printMarkdown(md string) {
	opt := glamour.WithStandardStyle("notty")
	if isTerminal() {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(80))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(stdout, out)
			return
		}
	}
	fmt.Fprintln(stdout, md)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

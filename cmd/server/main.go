package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"finanzas/internal/config"
	"finanzas/internal/handlers/advisor"
	"finanzas/internal/handlers/backup"
	"finanzas/internal/handlers/dashboard"
	"finanzas/internal/handlers/transactions"
	"finanzas/internal/log"
	advisorsvc "finanzas/internal/services/advisor"
	"finanzas/internal/services/confirm"
	"finanzas/internal/services/dataloader"
	"finanzas/internal/services/ledger"
	"finanzas/internal/services/storage"
	"finanzas/internal/templates"
	"finanzas/internal/version"
)

var (
	cfg      *config.Config
	logger   *log.Logger
	store    storage.KeyValue
	book     *ledger.Ledger
	renderer *templates.Renderer
	session  *advisorsvc.Session
	gate     *confirm.Gate
)

func main() {
	config.LoadEnvFile()

	cfg = config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger = log.New(cfg.LogConfig(log.ComponentApp))
	log.SetDefault(logger)

	info := version.Get()
	logger.Info("starting Finanzas AI Pro", "version", info.Short(), "addr", cfg.ListenAddr, "data_dir", cfg.DataDirectory, "backend", cfg.StorageBackend)
	if warning := info.Check(); warning != "" {
		logger.Warn(warning)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("cannot create data directory", log.FieldError, err)
		os.Exit(1)
	}

	if err := SetupDependencies(cfg); err != nil {
		logger.Error("startup failed", log.FieldError, err)
		os.Exit(1)
	}
	defer shutdownDependencies()

	srv := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        SetupRouter(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err)
		shutdownDependencies()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// SetupDependencies opens storage, loads the ledger and initializes every
// handler package. It can be called again by tests with a different config.
func SetupDependencies(c *config.Config) error {
	cfg = c
	if logger == nil {
		logger = log.New(c.LogConfig(log.ComponentApp))
	}

	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("close previous storage", log.FieldError, err)
		}
		store = nil
	}

	kv, err := storage.Open(c.StorageOptions())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if fs, ok := kv.(*storage.FileStore); ok && fs.IsEncrypted() {
		if err := unlock(fs, c.EncryptPassword); err != nil {
			kv.Close()
			return err
		}
	}
	store = kv

	book, err = ledger.New(context.Background(), store, logger)
	if err != nil {
		store.Close()
		store = nil
		return err
	}

	renderer, err = templates.New(c.TemplatesDirectory, c.Debug, logger)
	if err != nil {
		// Handlers fall back to plain output without templates
		logger.Warn("could not load templates", log.FieldError, err)
		renderer = nil
	}

	if session != nil {
		session.Close()
	}
	session = advisorsvc.NewSession(advisorsvc.Options{
		ThinkDelay: c.AdvisorDelay,
		Lifetime:   c.AdvisorTTL,
		Tick:       time.Second,
	}, logger)

	if gate != nil {
		gate.Stop()
	}
	gate = confirm.New(c.ConfirmWindow)

	loader := dataloader.New(logger)

	dashboard.Initialize(book, renderer)
	dashboard.SetPlotlySource(c.DataDirectory, c.PlotlyURL)
	transactions.Initialize(book, renderer, loader)
	advisor.Initialize(book, renderer, session)
	backup.Initialize(book, renderer, gate, session, c.ConfirmWindow)

	return nil
}

// unlock opens an encrypted data directory with the configured password, or
// asks for one when running on a terminal.
func unlock(fs *storage.FileStore, password string) error {
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("data directory is encrypted: set FINANZAS_ENCRYPT_PASSWORD")
		}
		fmt.Fprint(os.Stderr, "Contraseña: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	}
	if err := fs.Unlock(password); err != nil {
		return fmt.Errorf("unlock data directory: %w", err)
	}
	logger.Info("data directory unlocked")
	return nil
}

func shutdownDependencies() {
	if session != nil {
		session.Close()
	}
	if gate != nil {
		gate.Stop()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("close storage", log.FieldError, err)
		}
		store = nil
	}
}

// SetupRouter builds the chi router with middleware and all routes
func SetupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(middleware.Compress(5))

	fileServer := http.FileServer(http.Dir(cfg.StaticDirectory))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
	})

	dashboard.RegisterRoutes(r)
	transactions.RegisterRoutes(r)
	advisor.RegisterRoutes(r)
	backup.RegisterRoutes(r)

	return r
}

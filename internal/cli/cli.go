// Package cli parses the hrconsole command line and wires the binaries
// together: the interactive console, the development stub API, and the
// spreadsheet import/export commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hrconsole/internal/api"
	"hrconsole/internal/config"
	"hrconsole/internal/console"
	"hrconsole/internal/controller"
	"hrconsole/internal/export"
	"hrconsole/internal/runloop"
	"hrconsole/internal/session"
	"hrconsole/internal/stub"
)

var ErrUsage = errors.New("usage")

func Execute(args []string) error {
	if len(args) < 1 {
		return usageError()
	}

	switch args[0] {
	case "setup":
		return runSetup(args[1:])
	case "run":
		return runCommand(args[1:])
	case "import":
		return runImport(args[1:])
	case "export":
		return runExport(args[1:])
	default:
		return usageError()
	}
}

func usageError() error {
	return fmt.Errorf("%w: hrconsole <setup|run|import|export> [...]", ErrUsage)
}

func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: hrconsole setup [--env-file .env] [--force]")
	fmt.Fprintln(w, "       hrconsole run console|stub|all")
	fmt.Fprintln(w, "       hrconsole import employees <file.xlsx|file.xls>")
	fmt.Fprintln(w, "       hrconsole export employees|payroll|monthly-report [--out file.xlsx] [--month m] [--year yyyy]")
}

func runSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	envPath := fs.String("env-file", ".env", "path to .env file")
	force := fs.Bool("force", false, "overwrite existing env file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	values := map[string]string{
		"API_BASE_URL":    "http://localhost:8080",
		"STUB_ADDR":       ":8080",
		"STUB_JWT_SECRET": "dev-secret",
		"DOWNLOAD_DIR":    "downloads",
	}
	if err := config.WriteDotEnv(*envPath, values, *force); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *envPath)
	return nil
}

func runCommand(args []string) error {
	if len(args) < 1 {
		return errors.New("missing run target: console | stub | all")
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg := config.FromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "console":
		return runConsole(ctx, cfg)
	case "stub":
		return RunStub(ctx, cfg)
	case "all":
		return runAll(ctx, cfg)
	default:
		return fmt.Errorf("unknown run target %q", args[0])
	}
}

func newSessionStore(cfg config.Config) (*session.Store, error) {
	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		var err error
		tokenPath, err = session.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
	}
	store := session.New(tokenPath)
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func runConsole(ctx context.Context, cfg config.Config) error {
	store, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	client, err := api.New(cfg.APIBaseURL, store)
	if err != nil {
		return err
	}

	loop := runloop.New()
	app := controller.NewApp(loop, client, store)
	app.DownloadDir = cfg.DownloadDir

	err = console.New(app, os.Stdin, os.Stdout).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunStub serves the in-memory development API until ctx is cancelled.
func RunStub(ctx context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	server := &http.Server{
		Addr:    cfg.StubAddr,
		Handler: stub.New(cfg.StubSecret, logger).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("stub API listening on %s", cfg.StubAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func runAll(ctx context.Context, cfg config.Config) error {
	errCh := make(chan error, 2)

	go func() { errCh <- RunStub(ctx, cfg) }()
	go func() {
		time.Sleep(500 * time.Millisecond)
		errCh <- runConsole(ctx, cfg)
	}()

	for i := 0; i < 2; i++ {
		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

// authedClient builds an API client off the persisted console session.
func authedClient(cfg config.Config) (*api.Client, error) {
	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	if !store.IsAuthenticated() {
		return nil, errors.New("not signed in; run the console and log in first")
	}
	return api.New(cfg.APIBaseURL, store)
}

func runImport(args []string) error {
	if len(args) != 2 || args[0] != "employees" {
		return fmt.Errorf("%w: hrconsole import employees <file>", ErrUsage)
	}
	path := args[1]

	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg := config.FromEnv()
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	drafts, rowErrors, err := export.ParseEmployees(f, filepath.Base(path))
	if err != nil {
		return err
	}
	for _, rowErr := range rowErrors {
		fmt.Fprintln(os.Stderr, rowErr)
	}
	if len(drafts) == 0 {
		return errors.New("no importable rows")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result := export.ImportEmployees(ctx, client, drafts)
	for _, rowErr := range result.Errors {
		fmt.Fprintln(os.Stderr, rowErr)
	}
	fmt.Printf("imported %d of %d employees\n", result.Created, len(drafts))
	if result.Created < len(drafts) {
		return errors.New("some rows failed; see above")
	}
	return nil
}

func runExport(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: hrconsole export employees|payroll|monthly-report [...]", ErrUsage)
	}
	report := args[0]

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("out", "", "output file (defaults to <report>.xlsx)")
	month := fs.Int("month", int(time.Now().Month()), "period month")
	year := fs.Int("year", time.Now().Year(), "period year")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *out == "" {
		*out = report + ".xlsx"
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg := config.FromEnv()
	client, err := authedClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	switch report {
	case "employees":
		page, err := client.ListEmployees(ctx, api.EmployeeFilter{Page: 1, Limit: 1000, Active: true})
		if err != nil {
			return err
		}
		if err := export.Employees(f, page.Data); err != nil {
			return err
		}
	case "payroll":
		records, err := client.PayrollRecords(ctx, *month, *year, "")
		if err != nil {
			return err
		}
		if err := export.PayrollRecords(f, records, *month, *year); err != nil {
			return err
		}
	case "monthly-report":
		rows, err := client.MonthlyReport(ctx, *month, *year, 0)
		if err != nil {
			return err
		}
		if err := export.MonthlyReport(f, rows, *month, *year); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown report %q", ErrUsage, report)
	}
	fmt.Printf("wrote %s\n", *out)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/erazemk/scannerlog/internal/app"
	"github.com/erazemk/scannerlog/internal/cli"
	"github.com/erazemk/scannerlog/internal/config"
	"github.com/erazemk/scannerlog/internal/download"
	"github.com/erazemk/scannerlog/internal/logging"
	"github.com/erazemk/scannerlog/internal/notify"
	"github.com/erazemk/scannerlog/internal/session"
	"github.com/erazemk/scannerlog/internal/tui"
	"github.com/erazemk/scannerlog/internal/web"
)

func usage() {
	fmt.Fprint(os.Stdout, `Usage: scannerlog [flags] <command> [args]

Flags:
  -c, --config <path>       config file (default: `+config.DefaultSources().DefaultFile+`)
  -u, --api <url>           inventory API base URL (default: `+config.DefaultAPIURL+`)
  -a, --addr <host:port>    listen address for serve (default: `+config.DefaultListenAddr+`)
  -s, --state <path>        state database path
  -d, --dir <path>          directory exports are saved to (default: .)
  -l, --log <path>          log file path (default: no file)
      --log-level <level>   debug, info, warn or error (default: info)
      --timeout <duration>  API request timeout (default: 30s)
  -h, --help                show this help and exit

Every flag can also be set in the config file or as a SCANNERLOG_* environment
variable, e.g. SCANNERLOG_API_URL. A .env file in the working directory is read too.

`)
	cli.Usage(os.Stdout)
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("scannerlog", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	flags := config.Bind(fs)
	fs.BoolP("help", "h", false, "")
	fs.Usage = usage

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if help, _ := fs.GetBool("help"); help || fs.NArg() == 0 {
		usage()
		if help {
			return 0
		}
		return 1
	}

	command := fs.Arg(0)
	if command != "serve" && command != "tui" && !cli.IsCommand(command) {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		usage()
		return 1
	}

	cfg, err := config.Load(flags, config.DefaultSources())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	mode := logging.Command
	switch command {
	case "serve":
		mode = logging.Server
	case "tui":
		mode = logging.Quiet
	}
	logger, closeLog, err := logging.Setup(logging.Options{Mode: mode, Level: cfg.Level(), Path: cfg.LogPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}

	switch command {
	case "serve":
		err = serve(cfg, logger, fs.Args()[1:])
	case "tui":
		err = runTUI(cfg, logger)
	default:
		err = runCommand(cfg, logger, fs.Args())
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func runCommand(cfg *config.Config, logger *slog.Logger, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, cli.NoticePrinter(os.Stderr), download.Dir{Path: cfg.DownloadDir}, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return cli.New(a, cfg, os.Stdin, os.Stdout, os.Stderr).Run(ctx, args)
}

func runTUI(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notices := &notify.Queue{}
	a, err := app.Open(ctx, cfg, notify.Logged(logger, notices), download.Dir{Path: cfg.DownloadDir}, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Restore(ctx); err != nil && !errors.Is(err, session.ErrAuthInvalid) {
		return err
	}
	if !a.Session.Authenticated() {
		return cli.ErrNotLoggedIn
	}
	return tui.Run(ctx, a, notices)
}

func serve(cfg *config.Config, logger *slog.Logger, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	ctx := context.Background()
	notices := &notify.Queue{}
	a, err := app.Open(ctx, cfg, notify.Logged(logger, notices), download.Dir{Path: cfg.DownloadDir}, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// A saved session that no longer validates just means logging in again.
	if err := a.Restore(ctx); err != nil && !errors.Is(err, session.ErrAuthInvalid) {
		return err
	}
	a.Load(ctx)

	handler, err := web.NewRouter(a, notices, cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.ListenAddr, "api", cfg.APIURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

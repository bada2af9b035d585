package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/applied-systems-biology/jipipe-expr/config"
	"github.com/applied-systems-biology/jipipe-expr/jexpr"
	"github.com/applied-systems-biology/jipipe-expr/metrics"
	"github.com/spf13/cobra"
)

// app holds the state shared by all subcommands. It is populated by the
// root command's pre-run hook.
type app struct {
	cfgFile     string
	verbose     bool
	metricsAddr string

	cfg           *config.Config
	logger        *slog.Logger
	engine        *jexpr.Engine
	metricsServer *http.Server
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jexpr",
		Short: "Evaluate JIPipe expressions",
		Long: `jexpr evaluates expressions of the JIPipe expression language: filter
predicates, value generators and path formulas evaluated against a set of
variables.

Configuration is read from jexpr.yaml when present and can be overridden
with JEXPR_* environment variables.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", config.DefaultPath, "config file path")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		a.evalCommand(),
		a.checkCommand(),
		a.tokensCommand(),
		a.functionsCommand(),
		a.replCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = a.metricsAddr
	}
	a.cfg = cfg

	// The REPL owns the terminal; logging to it would corrupt the screen.
	logOutput := cmd.ErrOrStderr()
	if cmd.Name() == "repl" && !a.verbose {
		logOutput = io.Discard
	}
	logger, err := cfg.Logging.NewLogger(logOutput, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	var observer jexpr.Observer
	if cfg.Metrics.Enabled {
		obs := metrics.NewObserver(cfg.Metrics.Namespace, nil)
		if err := a.serveMetrics(obs); err != nil {
			return err
		}
		observer = obs
	}

	engine, err := jexpr.NewEngine(jexpr.Config{
		StepQuota:      cfg.Engine.StepQuota,
		RecursionLimit: cfg.Engine.RecursionLimit,
		CacheSize:      cfg.Engine.CacheSize,
		Logger:         logger,
		Observer:       observer,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	a.engine = engine

	return a.loadExtensions()
}

// loadExtensions applies the configured extension file. A missing file is
// skipped so the watcher can pick it up once it is created.
func (a *app) loadExtensions() error {
	path := a.cfg.Extensions.Path
	set, err := jexpr.LoadExtensions(path)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Debug("no extension file", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	if err := a.engine.ApplyExtensions(set); err != nil {
		return err
	}
	a.logger.Debug("extensions loaded", "path", path, "functions", len(set.Functions))
	return nil
}

func (a *app) serveMetrics(obs *metrics.Observer) error {
	ln, err := net.Listen("tcp", a.cfg.Metrics.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", obs.Handler())
	a.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "address", ln.Addr().String())
	return nil
}

func (a *app) close() error {
	if a.metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.metricsServer.Shutdown(ctx)
}

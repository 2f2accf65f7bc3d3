// Package main is the entry point for the counter dapp.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/counter-dapp/business/chain"
	chainDI "github.com/fd1az/counter-dapp/business/chain/di"
	"github.com/fd1az/counter-dapp/business/counter"
	counterApp "github.com/fd1az/counter-dapp/business/counter/app"
	counterDI "github.com/fd1az/counter-dapp/business/counter/di"
	counterInfra "github.com/fd1az/counter-dapp/business/counter/infra"
	"github.com/fd1az/counter-dapp/business/wallet"
	walletDI "github.com/fd1az/counter-dapp/business/wallet/di"
	"github.com/fd1az/counter-dapp/internal/apm"
	"github.com/fd1az/counter-dapp/internal/config"
	"github.com/fd1az/counter-dapp/internal/health"
	"github.com/fd1az/counter-dapp/internal/logger"
	"github.com/fd1az/counter-dapp/internal/metrics"
	"github.com/fd1az/counter-dapp/internal/monolith"
	"github.com/fd1az/counter-dapp/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs and stdin commands (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("counter-dapp %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for scripting and debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set TUI mode in config so modules know
	cfg.TUIMode = tuiMode

	// Only log to stderr in CLI mode; the TUI owns the terminal
	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceIDFromContext)
	log.Info(ctx, "starting counter dapp",
		"version", version,
		"environment", cfg.App.Environment,
	)

	if cfg.Telemetry.Enabled {
		stopTelemetry, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stopTelemetry()
	}

	mono := monolith.New(cfg, log)
	defer func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "shutdown errors", "error", err)
		}
	}()

	// Define modules in dependency order
	modules := []monolith.Module{
		&chain.Module{},   // Must be first - provides the provider stream and gas oracle
		&wallet.Module{},  // Provides the connector and signer
		&counter.Module{}, // Depends on chain and wallet
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if cfg.Health.Enabled {
		healthServer := newHealthServer(cfg, mono, log)
		healthServer.Start()
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
		defer shutdown(log, shutdownStep{"health server", healthServer.Stop})
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	panel := counterDI.GetPanel(mono.Services())

	if tuiMode {
		return runTUI(ctx, cfg, panel, counterDI.GetTUIReporter(mono.Services()))
	}
	return runCLI(ctx, panel, os.Stdin, log)
}

// startTelemetry installs the trace and metric providers and the Prometheus
// scrape server. The returned func releases all three.
func startTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	traceProvider := apm.NewTraceProvider(
		apm.WithServiceName(serviceName),
		tracingProvider(cfg, log),
	)

	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(serviceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{
			Provider: metrics.PrometheusProvider,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	promServer := metrics.NewPrometheusServer(metrics.WithPort(strconv.Itoa(port)))
	go func() {
		if err := promServer.ListenAndServe(); err != nil {
			log.Error(ctx, "prometheus server stopped", "error", err)
		}
	}()
	log.Info(ctx, "telemetry started", "service", serviceName, "prometheus_port", port)

	return func() {
		shutdown(log,
			shutdownStep{"prometheus server", promServer.Shutdown},
			shutdownStep{"meter provider", meterProvider.Shutdown},
			shutdownStep{"trace provider", func(context.Context) error { return traceProvider.Stop() }},
		)
	}, nil
}

// shutdownTimeout bounds each shutdown step.
const shutdownTimeout = 5 * time.Second

type shutdownStep struct {
	name string
	stop func(ctx context.Context) error
}

// shutdown runs every step in order, logging failures without stopping.
func shutdown(log logger.LoggerInterface, steps ...shutdownStep) {
	for _, step := range steps {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := step.stop(ctx); err != nil {
			log.Warn(ctx, "shutdown failed", "component", step.name, "error", err)
		}
		cancel()
	}
}

// tracingProvider picks the span exporter from the endpoint scheme.
func tracingProvider(cfg *config.Config, log *logger.Logger) apm.TracerOption {
	endpoint := cfg.Telemetry.OTLPEndpoint
	switch {
	case endpoint == "":
		return apm.WithProvider(apm.EmptyProvider, "", log)
	case endpoint == "stdout":
		return apm.WithProvider(apm.ConsoleProvider, "", log)
	case strings.Contains(endpoint, "/api/v2/spans"):
		return apm.WithProvider(apm.ZipkinProvider, endpoint, log)
	case strings.HasSuffix(endpoint, ":4317"):
		return apm.WithProvider(apm.OTLPGRPCProvider, endpoint, log)
	default:
		return apm.WithProvider(apm.OTLPHTTPProvider, endpoint, log)
	}
}

func newHealthServer(cfg *config.Config, mono monolith.Monolith, log *logger.Logger) *health.Server {
	srv := health.NewServer(cfg.Health.Port, version, log)

	chainService := chainDI.GetChainService(mono.Services())
	srv.RegisterCheck("provider", func(context.Context) (bool, string) {
		status := chainService.Status()
		if !chainService.ProviderPresent() {
			return false, string(status.State)
		}
		return true, fmt.Sprintf("%s (chain %d)", status.Chain.Name, status.Chain.ID)
	})

	connector := walletDI.GetConnector(mono.Services())
	srv.RegisterCheck("wallet", func(context.Context) (bool, string) {
		account := connector.CurrentAccount()
		if !account.IsConnected {
			return false, "not connected"
		}
		return true, account.Hex()
	})

	return srv
}

func runTUI(ctx context.Context, cfg *config.Config, panel *counterApp.Panel, reporter *counterInfra.TUIReporter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.New(ctx, panel, ui.Links{
		Explorer: cfg.Contract.ExplorerLink(),
		Source:   cfg.Contract.SourceURL,
		Faucet:   cfg.Contract.FaucetURL,
	})

	// Replay the current state once the program exists, then stream updates
	return ui.Run(model, func(p *tea.Program) {
		go func() {
			p.Send(ui.StateMsg{State: panel.Snapshot()})
			reporter.Run(ctx, p)
		}()
		go func() {
			<-ctx.Done()
			p.Quit()
		}()
	})
}

const cliHelp = `commands:
  inc | +       increment the counter
  read          re-read the counter
  wallet | w    connect or disconnect the wallet
  info | i      toggle connection info
  status        print the current state
  dismiss       clear the pending alert
  quit | q      exit`

// runCLI drives the panel from line commands on in until EOF, "quit" or
// ctx cancellation.
func runCLI(ctx context.Context, panel *counterApp.Panel, in io.Reader, log *logger.Logger) error {
	log.Info(ctx, "all modules started, reading commands from stdin")
	fmt.Println(cliHelp)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "shutting down")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleCommand(ctx, panel, line); quit {
				return nil
			}
		}
	}
}

func handleCommand(ctx context.Context, panel *counterApp.Panel, line string) bool {
	switch strings.ToLower(line) {
	case "":
	case "inc", "increment", "+":
		out := panel.Increment(ctx)
		if !out.Ok() {
			fmt.Fprintln(os.Stderr, out.Summary())
		}
	case "read":
		if _, err := panel.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "read failed: %v\n", err)
		}
	case "wallet", "w":
		panel.ToggleWallet(ctx)
	case "info", "i":
		panel.ToggleConnectionInfo()
	case "status":
		printStatus(panel.Snapshot())
	case "dismiss":
		panel.DismissAlert()
	case "quit", "q", "exit":
		return true
	default:
		fmt.Println(cliHelp)
	}
	return false
}

func printStatus(s counterApp.State) {
	fmt.Println(s.AccountText())
	fmt.Println(s.ProviderText())
	if s.ProviderPresent && s.Chain.BlockNumber != nil {
		fmt.Printf("Block number: %d\n", *s.Chain.BlockNumber)
	}
	if s.Count != nil {
		fmt.Printf("Count: %s\n", s.Count.String())
	} else {
		fmt.Println("Count: unknown")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/earthview/globe/internal/config"
	"github.com/earthview/globe/internal/globe"
	"github.com/earthview/globe/internal/httpapi"
	"github.com/earthview/globe/internal/influx"
	"github.com/earthview/globe/internal/location"
	"github.com/earthview/globe/internal/logging"
	"github.com/earthview/globe/internal/monitor"
	intOtel "github.com/earthview/globe/internal/otel"
	"github.com/earthview/globe/internal/pulse"
	"github.com/earthview/globe/internal/stream"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName names log files, dumps and the OTel resource.
const ServiceName = "earthview"

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFilePath string
	LogFile     *os.File

	SessionStartTime time.Time = time.Now()
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run dispatches a subcommand. With no arguments the server starts.
func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "serve" {
		if len(args) > 0 {
			args = args[1:]
		}
		return serve(args)
	}
	return runCLI(args, out)
}

func serve(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing "+config.FileName)
	fs.String("addr", ":8080", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}
	if err := viper.BindPFlag("server.address", fs.Lookup("addr")); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := stream.NewRegistry()
	closeLogging, err := setupLogging(registry)
	if err != nil {
		return err
	}
	defer closeLogging()

	backend, pending, err := initStorage(Logger)
	if err != nil {
		return err
	}

	statusMonitor := monitor.NewService(monitor.Dependencies{
		Logger:         Logger.With("component", "monitor"),
		Sessions:       registry.IDs,
		PendingLookups: pending,
		StatusPath:     filepath.Join(viper.GetString("logsDir"), "status.json"),
		StartedAt:      SessionStartTime,
	})
	if err := statusMonitor.Start(); err != nil {
		return err
	}
	defer statusMonitor.Stop()

	recorders := []stream.LocationRecorder{backend}
	influxManager := initInflux(ctx)
	if influxManager != nil {
		recorders = append(recorders, influxManager)
	}

	serverCfg := config.GetServerConfig()
	streamHandler := stream.NewHandler(stream.HandlerOptions{
		Config:      streamConfig(serverCfg),
		IP:          ipSource(),
		Registry:    registry,
		Recorders:   recorders,
		Logger:      Logger.With("component", "stream"),
		BaseContext: ctx,
	})

	api := httpapi.New(httpapi.Options{
		Storage:   backend,
		Stream:    streamHandler,
		ShareRoot: serverCfg.ShareRoot,
		Logger:    Logger.With("component", "http"),
		Sessions:  registry.Count,
		Status:    func() any { return statusMonitor.GetStatus() },
	})

	srv := &http.Server{
		Addr:              serverCfg.Address,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		Logger.Info("Listening", "address", serverCfg.Address, "shareRoot", serverCfg.ShareRoot)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		Logger.Info("Shutting down", "activeSessions", registry.Count())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()

	registry.CloseAll()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		Logger.Error("HTTP shutdown failed", "error", shutdownErr)
	}
	if closeErr := backend.Close(); closeErr != nil {
		Logger.Error("Failed to close storage backend", "error", closeErr)
	}
	if influxManager != nil {
		if closeErr := influxManager.Close(); closeErr != nil {
			Logger.Error("Failed to close InfluxDB manager", "error", closeErr)
		}
	}
	if OTelProvider != nil {
		if flushErr := OTelProvider.Flush(shutdownCtx); flushErr != nil {
			Logger.Error("Failed to flush OTel data", "error", flushErr)
		}
		if shutdownErr := OTelProvider.Shutdown(shutdownCtx); shutdownErr != nil {
			Logger.Error("Failed to shut down OTel provider", "error", shutdownErr)
		}
	}
	return err
}

// setupLogging opens the session log file and rebuilds the logger with
// file, OTel and Graylog outputs as configured.
func setupLogging(registry *stream.Registry) (func(), error) {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	LogFilePath = logging.LogFilePath(logsDir, ServiceName, SessionStartTime)
	file, err := os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", LogFilePath, err)
	}
	LogFile = file
	Logger.Info("Begin logging in logs directory", "path", LogFilePath)

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.FromConfig(otelCfg, LogFile))
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		} else {
			Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	var extra []slog.Handler
	var graylog io.Closer
	level := viper.GetString("logLevel")
	if glCfg := config.GetGraylogConfig(); glCfg.Enabled {
		h, closer, err := logging.NewGraylogHandler(glCfg.Address, level)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "address", glCfg.Address, "error", err)
		} else {
			extra = append(extra, h)
			graylog = closer
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Context = registry.LogAttrs
	SlogManager.Setup(LogFile, level, otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	slog.SetDefault(Logger)
	Logger.Info("Logging to file", "path", LogFilePath)

	return func() {
		if err := SlogManager.Flush(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "flush logs:", err)
		}
		if graylog != nil {
			_ = graylog.Close()
		}
		_ = LogFile.Close()
	}, nil
}

// initInflux connects the location lookup metrics writer. It returns nil
// when InfluxDB is disabled or unusable.
func initInflux(ctx context.Context) *influx.Manager {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}
	zl := logging.NewZerolog(LogFile, viper.GetString("logLevel"), "influx")
	m := influx.NewManager(zl, cfg)
	if err := m.Connect(ctx); err != nil {
		Logger.Error("Failed to set up InfluxDB", "error", err)
		return nil
	}
	return m
}

func ipSource() location.Source {
	cfg := config.GetLocationConfig()
	if !cfg.IPEnabled {
		return nil
	}
	return location.NewIP(cfg.IPURL, cfg.IPTimeout)
}

func streamConfig(serverCfg config.ServerConfig) stream.Config {
	locCfg := config.GetLocationConfig()
	globeCfg := config.GetGlobeConfig()
	return stream.Config{
		FPS:            globeCfg.FPS,
		SiteBase:       serverCfg.SiteBase,
		DeviceLocation: locCfg.DeviceEnabled,
		DeviceTimeout:  locCfg.DeviceTimeout,
		MaxFixAge:      locCfg.MaxFixAge,
		Globe: globe.Config{
			TransitionDuration: globeCfg.TransitionDuration,
			Pulse: pulse.Config{
				Interval:    globeCfg.PulseInterval,
				Duration:    globeCfg.PulseDuration,
				BaseOpacity: globeCfg.PulseBaseOpacity,
				Growth:      globeCfg.PulseGrowth,
			},
		},
	}
}

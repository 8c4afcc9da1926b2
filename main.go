package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"

	"sensoralert/controller"
	"sensoralert/dashboard"
	"sensoralert/device"
	"sensoralert/escalate"
	"sensoralert/indicator"
	"sensoralert/netcheck"
	"sensoralert/restart"
	"sensoralert/sensor"
	"sensoralert/shared"
	"sensoralert/status"
	"sensoralert/telemetry"
	"sensoralert/utils"
)

const networkTTL = 30 * time.Second

func setupLogging(level, format, file string) (io.Closer, error) {
	if level != "" {
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level %q: %w", level, err)
		}
		log.SetLevel(lvl)
	}
	switch format {
	case "", "text":
	case "json":
		log.SetFormatter(log.JSONFormatter)
	case "logfmt":
		log.SetFormatter(log.LogfmtFormatter)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	log.SetReportTimestamp(true)
	if file == "" {
		return nil, nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return f, nil
}

type options struct {
	configFile string
	envFile    string
	level      string
	tui        bool
}

func main() {

	var (
		opts      options
		logFormat string
		logFile   string
	)
	flag.StringVar(&opts.configFile, "config", utils.DefaultConfigFile, "Config file")
	flag.StringVar(&opts.envFile, "env", utils.DefaultEnvFile, ".env file with overrides")
	flag.StringVar(&opts.level, "level", "", "Log level (overrides config)")
	flag.StringVar(&logFormat, "log-format", "text", "Log format: text, json or logfmt")
	flag.StringVar(&logFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&opts.tui, "tui", false, "Show the terminal dashboard")
	flag.Parse()

	// the dashboard owns the terminal
	if opts.tui && logFile == "" {
		logFile = "sensoralert.log"
	}
	closer, err := setupLogging(opts.level, logFormat, logFile)
	if err != nil {
		log.Fatal("failed to set up logging", "err", err)
	}

	err = run(opts)
	if err != nil {
		log.Error("sensoralert stopped", "err", err)
	}
	if closer != nil {
		closer.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

// run wires the controller and blocks until it stops. Outputs are switched
// off on every return path.
func run(opts options) error {
	var wg sync.WaitGroup

	// load config
	cfg, err := utils.LoadConfig(opts.configFile, opts.envFile)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", opts.configFile, err)
	}
	if opts.level == "" {
		if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(lvl)
		} else {
			log.Warn("ignoring config log level", "level", cfg.LogLevel, "err", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("Received interrupt. Cancelling...")
		cancel()
	}()

	iface := cfg.Network.Interface
	info := device.Info{
		Type:     cfg.Device.Type,
		Function: cfg.Device.Function,
		Model:    cfg.Device.Model,
		ID:       device.ResolveID(cfg.Device.ID, cfg.Device.Interface),
	}
	device.LogHostInfo(info, device.Lookup(ctx, iface))

	drv, err := indicator.New(cfg.Indicator)
	if err != nil {
		return fmt.Errorf("failed to set up indicator: %w", err)
	}
	defer drv.Shutdown()

	proc := restart.New(shared.Ms(cfg.Restart.DelayMs), cfg.Restart.ExitCode)
	proc.Before = drv.Shutdown

	if !cfg.Network.Skip {
		err := netcheck.WaitLink(ctx, netcheck.Options{
			Interface:  iface,
			Attempts:   cfg.Network.Attempts,
			RetryDelay: shared.Ms(cfg.Network.RetryDelayMs),
			Fault:      drv.LinkFault,
		})
		switch {
		case errors.Is(err, netcheck.ErrLinkDown):
			proc.Restart(err.Error())
			return nil
		case err != nil:
			log.Info("startup interrupted", "err", err)
			return nil
		}
		if host := cfg.Network.ProbeHost; host != "" {
			if rtt, err := netcheck.Probe(ctx, host, 0); err != nil {
				log.Warn("probe failed", "host", host, "err", err)
			} else {
				log.Info("probe ok", "host", host, "rtt", rtt)
			}
		}
	}

	var feed *sensor.Feed
	var feedClient mqtt.Client
	if cfg.Sensor.Driver == "feed" {
		feed = sensor.NewFeed(shared.Ms(cfg.Sensor.Feed.MaxAgeMs), time.Now)
		feedClient, err = startFeed(ctx, cfg.Feed, feed)
		switch {
		case errors.Is(err, telemetry.ErrConnect):
			drv.LinkFault(true)
			proc.Restart(err.Error())
			return nil
		case err != nil:
			return fmt.Errorf("failed to start feed: %w", err)
		}
		defer func() {
			log.Info("Disconnecting from feed broker")
			feedClient.Disconnect(250)
		}()
	} else if cfg.Feed.Broker != "" {
		log.Warnf("feed broker configured but sensor driver is %q; not subscribing", cfg.Sensor.Driver)
	}

	sampler, err := sensor.New(cfg.Sensor, feed, time.Now)
	if err != nil {
		return fmt.Errorf("failed to set up sensor %q: %w", cfg.Sensor.Driver, err)
	}
	defer sampler.Close()

	sinks, err := telemetry.NewSinks(ctx, cfg.Telemetry, info.ID)
	switch {
	case errors.Is(err, telemetry.ErrConnect):
		drv.LinkFault(true)
		proc.Restart(err.Error())
		return nil
	case err != nil:
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics := status.NewMetrics(reg)
	store := status.NewStore(info.ID)

	builder := telemetry.NewBuilder(info, func(ctx context.Context) device.Network {
		return device.Lookup(ctx, iface)
	}, networkTTL)
	disp := telemetry.NewDispatcher(builder, sinks, cfg.Telemetry.QueueSize)
	disp.OnPublish = metrics.ObservePublish
	disp.OnDrop = metrics.ObserveDrop

	wg.Add(1)
	log.Info("starting telemetry publisher", "sinks", len(sinks))
	go disp.Run(ctx, &wg)

	if cfg.Status.Listen != "" {
		wg.Add(1)
		go status.Serve(ctx, &wg, cfg.Status.Listen, status.NewRouter(store, reg))
	}

	observers := []controller.Observer{store, metrics}
	if opts.tui {
		feeder := dashboard.NewFeeder()
		observers = append(observers, feeder)
		p := tea.NewProgram(dashboard.New(info.ID, cancel), tea.WithAltScreen(), tea.WithContext(ctx))
		go feeder.Run(ctx, p)
		go func() {
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				log.Error("dashboard stopped", "err", err)
			}
			cancel()
		}()
	}

	ctrl, err := controller.New(controller.Options{
		Sampler:        sampler,
		Thresholds:     cfg.Thresholds,
		Indicator:      drv,
		Escalator:      escalate.New(cfg.Controller.FailureCap, proc.Restart),
		SampleInterval: shared.Ms(cfg.Controller.SampleIntervalMs),
		PublishErrors:  cfg.Telemetry.PublishErrors,
		Publish: func(ev controller.Event) {
			disp.Submit(ev.Tag, ev.Reading)
		},
		Observers: observers,
	})
	if err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("failed to set up controller: %w", err)
	}

	err = ctrl.Run(ctx, shared.Ms(cfg.Controller.TickIntervalMs))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("control loop ended", "err", err)
	}
	cancel()

	wg.Wait()
	log.Info("All routines complete. Exiting.")
	return nil
}

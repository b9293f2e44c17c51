package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/refresh"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/termview"
)

var (
	// Command-line flags
	monitorURL  = flag.String("url", "http://localhost:5200", "Base URL of the detect monitor")
	statusPath  = flag.String("status", "/json", "Status endpoint path")
	imagePath   = flag.String("image", "/images/detect.jpg", "Detect image path")
	interval    = flag.Duration("interval", refresh.DefaultInterval, "Delay between the end of one cycle and the next")
	timeout     = flag.Duration("timeout", 5*time.Second, "Status request timeout")
	plain       = flag.Bool("plain", false, "Log slot updates instead of drawing the terminal view")
	tz          = flag.String("tz", "", "Time zone for the date slot (default: local)")
	layout      = flag.String("layout", refresh.DefaultDateLayout, "Go time layout for the date slot")
	metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address (disabled when empty)")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error, silent)")
	logColor    = flag.Bool("log-color", true, "Enable colored log output")
)

func main() {
	flag.Parse()

	// Initialize logger
	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	if !*plain {
		// the terminal view owns the screen
		level = logger.SILENT
	}
	logger.Init(level, os.Stderr, *logColor)

	format := refresh.DateFormat{Layout: *layout}
	if *tz != "" {
		loc, err := time.LoadLocation(*tz)
		if err != nil {
			log.Fatalf("Invalid time zone: %v", err)
		}
		format.Location = loc
	}

	base := strings.TrimRight(*monitorURL, "/")
	m := metrics.New()
	if *metricsAddr != "" {
		go func() {
			if err := m.StartServer(*metricsAddr); err != nil {
				logger.Error("Main", "Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []refresh.Option{
		refresh.WithInterval(*interval),
		refresh.WithDateFormat(format),
		refresh.WithMetrics(m),
	}
	fetcher := refresh.NewHTTPFetcher(base+*statusPath, *timeout)

	if *plain {
		surface := refresh.NewMemorySurface(base + *imagePath)
		surface.OnWrite(termview.NewChangeLogger(logger.For("Slots")).Write)

		loop := refresh.New(fetcher, opts...)
		if err := loop.Start(ctx, surface); err != nil {
			log.Fatalf("Failed to start refresh loop: %v", err)
		}
		logger.Info("Main", "Watching %s", fetcher.URL())
		<-ctx.Done()
		logger.Info("Main", "Stopped")
		return
	}

	view := termview.New(base+*imagePath, termview.NewProber(*timeout))
	loop := refresh.New(fetcher, append(opts, refresh.WithObserver(view.Observe))...)
	if err := loop.Start(ctx, view.Surface()); err != nil {
		log.Fatalf("Failed to start refresh loop: %v", err)
	}
	if err := view.Run(ctx, cancel); err != nil {
		log.Fatalf("Terminal view error: %v", err)
	}
}

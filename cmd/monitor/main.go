package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/webmonitor"
)

func main() {
	var (
		configPath string
		addr       string
		assetsDir  string
		broker     string
		topic      string
		noMQTT     bool
		logLevel   string
		logColor   bool
	)

	flag.StringVar(&configPath, "config", "", "YAML config file (optional)")
	flag.StringVar(&addr, "http", "", "HTTP server address (overrides config)")
	flag.StringVar(&assetsDir, "assets", "", "Directory overriding the embedded web assets")
	flag.StringVar(&broker, "broker", "", "MQTT broker host (overrides config)")
	flag.StringVar(&topic, "topic", "", "MQTT detect topic (overrides config)")
	flag.BoolVar(&noMQTT, "no-mqtt", false, "Serve without subscribing to the broker")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, silent)")
	flag.BoolVar(&logColor, "log-color", true, "Enable colored log output")
	flag.Parse()

	// Initialize logger
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.Init(level, os.Stderr, logColor)

	cfg, err := webmonitor.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if assetsDir != "" {
		cfg.AssetsDir = assetsDir
	}
	if broker != "" {
		cfg.BrokerAddress = broker
	}
	if topic != "" {
		cfg.DetectTopic = topic
	}
	if noMQTT {
		cfg.DisableCollector = true
	}

	m := metrics.New()
	store := webmonitor.NewStore(cfg.HistorySize)

	var collector *webmonitor.Collector
	if !cfg.DisableCollector {
		collector = webmonitor.NewCollector(cfg, store, m)
		if err := collector.Connect(); err != nil {
			log.Fatalf("Failed to connect to broker: %v", err)
		}
	}

	server := webmonitor.NewServer(cfg, store, m)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Handler(),
	}

	logger.Info("Main", "Detect monitor listening on %s", cfg.Addr)
	if cfg.DisableCollector {
		logger.Info("Main", "MQTT collector disabled")
	} else {
		logger.Info("Main", "Subscribed topic: %s on %s", cfg.DetectTopic, cfg.BrokerURL())
	}
	logger.Info("Main", "Log level: %s", level)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Main", "Shutting down...")
	if collector != nil {
		collector.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Main", "Error during shutdown: %v", err)
	}
	logger.Info("Main", "Server stopped")
}

package webmonitor

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/metrics"
)

// Collector subscribes to the detect topic and feeds every message into a
// Store.
type Collector struct {
	cfg     Config
	store   *Store
	metrics *metrics.Metrics
	client  mqtt.Client
}

// NewCollector creates a collector; call Connect to start receiving.
func NewCollector(cfg Config, store *Store, m *metrics.Metrics) *Collector {
	return &Collector{
		cfg:     cfg.withDefaults(),
		store:   store,
		metrics: m,
	}
}

// Connect dials the broker. The client retries and reconnects on its own,
// so a broker that is not up yet is not fatal.
func (c *Collector) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.cfg.BrokerURL())

	clientID := c.cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("detect-monitor-%d", time.Now().Unix())
	}
	opts.SetClientID(clientID)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(c.cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)

	logger.Info("Collector", "Connecting to MQTT broker at %s...", c.cfg.BrokerURL())
	token := c.client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		logger.Warn("Collector", "Broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", c.cfg.BrokerURL(), err)
	}
	return nil
}

// Close disconnects from the broker.
func (c *Collector) Close() {
	if c.client != nil {
		c.client.Disconnect(250)
	}
}

func (c *Collector) onConnect(client mqtt.Client) {
	logger.Info("Collector", "Connected, subscribing to %s", c.cfg.DetectTopic)
	token := client.Subscribe(c.cfg.DetectTopic, 0, c.messageHandler)
	if token.Wait() && token.Error() != nil {
		logger.Error("Collector", "Subscribe to %s failed: %v", c.cfg.DetectTopic, token.Error())
	}
}

func (c *Collector) onConnectionLost(client mqtt.Client, err error) {
	logger.Warn("Collector", "Connection lost: %v (will reconnect)", err)
}

func (c *Collector) messageHandler(client mqtt.Client, msg mqtt.Message) {
	c.ingest(msg.Payload())
}

// ingest stores one payload; split out so it can be driven without a broker.
func (c *Collector) ingest(payload []byte) {
	if err := c.store.Update(payload); err != nil {
		if c.metrics != nil {
			c.metrics.MQTTDropped.Add(1)
		}
		logger.Warn("Collector", "Dropping message (%d bytes): %v", len(payload), err)
		return
	}
	if c.metrics != nil {
		c.metrics.MQTTMessages.Add(1)
	}
	version, _ := c.store.Info()
	logger.Debug("Collector", "Stored detect message v%d (%d bytes)", version, len(payload))
}

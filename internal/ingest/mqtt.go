// Package ingest subscribes to the MQTT feed of sensor and beacon
// messages and dispatches them into the correlation engine through a
// bounded worker pool.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/zias-project/zias/server/internal/metrics"
	"github.com/zias-project/zias/server/internal/zias/service"
)

// Config holds connection parameters for the broker.
type Config struct {
	Broker      string
	Port        int
	Username    string
	Password    string
	TopicPrefix string
	Workers     int
	QueueDepth  int
}

// Client owns the broker connection and its subscriptions. Construct
// with New, then Start/Stop; there is no package-level client instance.
type Client struct {
	cfg        Config
	client     mqtt.Client
	pool       *Pool
	normalizer *service.Normalizer
	correlator *service.Correlator
	ble        *service.BLEService
	registry   *service.DeviceRegistry
	logger     *log.Logger
}

func New(
	cfg Config,
	normalizer *service.Normalizer,
	correlator *service.Correlator,
	ble *service.BLEService,
	registry *service.DeviceRegistry,
	logger *log.Logger,
) *Client {
	c := &Client{
		cfg:        cfg,
		pool:       NewPool(cfg.Workers, cfg.QueueDepth),
		normalizer: normalizer,
		correlator: correlator,
		ble:        ble,
		registry:   registry,
		logger:     logger,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)).
		SetClientID("zias-server").
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Printf("mqtt: connection lost: %v", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c.client = mqtt.NewClient(opts)
	return c
}

// Start connects to the broker. Subscriptions are (re-)established by
// the on-connect handler so they survive reconnects; if the broker is
// down, paho keeps retrying in the background.
func (c *Client) Start() error {
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("mqtt connect: timed out, retrying in background")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Stop unsubscribes, disconnects, and drains the worker pool.
func (c *Client) Stop() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	c.pool.Close()
}

// Connected reports broker liveness for health checks.
func (c *Client) Connected() bool {
	return c.client.IsConnected()
}

func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Printf("mqtt: connected to %s:%d", c.cfg.Broker, c.cfg.Port)

	topics := []string{
		c.cfg.TopicPrefix + "/devices/+/sensor",
		c.cfg.TopicPrefix + "/mobile/+/beacon",
		c.cfg.TopicPrefix + "/devices/+/status",
	}
	for _, topic := range topics {
		if token := client.Subscribe(topic, 1, c.onMessage); token.Wait() && token.Error() != nil {
			c.logger.Printf("mqtt: subscribe %s: %v", topic, token.Error())
			continue
		}
		c.logger.Printf("mqtt: subscribed to %s", topic)
	}
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	subject, channel, ok := parseTopic(c.cfg.TopicPrefix, msg.Topic())
	if !ok {
		metrics.IngestDropped.WithLabelValues("unknown", "bad_topic").Inc()
		c.logger.Printf("mqtt: ignoring message on unexpected topic %q", msg.Topic())
		return
	}

	// Copy the payload: paho reuses message buffers after the handler
	// returns, and the job runs later on a pool worker.
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	c.pool.Submit(func() {
		c.dispatch(channel, subject, payload)
	})
}

func (c *Client) dispatch(channel, subject string, payload []byte) {
	ctx := context.Background()

	switch channel {
	case "sensor":
		ping, err := c.normalizer.SensorPing(subject, payload)
		if err != nil {
			return // already counted and logged by the normalizer
		}
		_ = c.registry.NoteSeen(ctx, subject)
		if _, err := c.correlator.Ingest(ctx, ping); err != nil {
			c.logger.Printf("ingest: sensor ping device=%s: %v", subject, err)
		}

	case "beacon":
		rep, err := c.normalizer.BeaconReport(subject, payload)
		if err != nil {
			return
		}
		if _, _, err := c.ble.Process(ctx, rep); err != nil {
			c.logger.Printf("ingest: beacon report identity=%s: %v", subject, err)
		}

	case "status":
		if err := c.registry.NoteSeen(ctx, subject); err != nil {
			c.logger.Printf("ingest: device status %s: %v", subject, err)
		}

	default:
		metrics.IngestDropped.WithLabelValues(channel, "unknown_channel").Inc()
		c.logger.Printf("ingest: unknown channel %q", channel)
	}
}

// parseTopic extracts the subject (device id or identity key) and
// channel from a topic like "zias/devices/rfid-3a/sensor" or
// "zias/mobile/s1042/beacon".
func parseTopic(prefix, topic string) (subject, channel string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != prefix {
		return "", "", false
	}
	switch {
	case parts[1] == "devices" && (parts[3] == "sensor" || parts[3] == "status"):
		return parts[2], parts[3], parts[2] != ""
	case parts[1] == "mobile" && parts[3] == "beacon":
		return parts[2], parts[3], parts[2] != ""
	}
	return "", "", false
}

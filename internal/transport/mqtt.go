package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// ErrNotConnected is returned by Publish while the broker session is down.
var ErrNotConnected = errors.New("mqtt not connected")

// MQTTOptions configures the broker session.
type MQTTOptions struct {
	Broker         string
	ClientID       string
	QoS            byte
	ConnectTimeout time.Duration
}

// DefaultClientID returns a unique client id for a replay process.
func DefaultClientID() string {
	return "replay-" + uuid.NewString()
}

// MQTTPublisher publishes joint commands to an MQTT broker.
type MQTTPublisher struct {
	client  mqtt.Client
	qos     byte
	log     *slog.Logger
	onError ErrorFunc

	published atomic.Uint64
}

// NewMQTTPublisher connects to the broker and returns a publisher. The
// session reconnects automatically after a connection loss.
func NewMQTTPublisher(opts MQTTOptions, log *slog.Logger, onError ErrorFunc) (*MQTTPublisher, error) {
	if opts.ClientID == "" {
		opts.ClientID = DefaultClientID()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.SetMaxReconnectInterval(30 * time.Second)
	co.SetOrderMatters(false)

	co.OnConnect = func(c mqtt.Client) {
		log.Info("mqtt connection established",
			slog.String("broker", opts.Broker),
			slog.String("client_id", opts.ClientID))
	}
	co.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Warn("mqtt connection lost, will auto-reconnect",
			slog.String("broker", opts.Broker),
			slog.String("error", err.Error()))
	}

	client := mqtt.NewClient(co)

	log.Info("connecting to mqtt broker", slog.String("broker", opts.Broker))
	token := client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection timeout after %s", opts.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	return newMQTTPublisher(client, opts.QoS, log, onError), nil
}

func newMQTTPublisher(client mqtt.Client, qos byte, log *slog.Logger, onError ErrorFunc) *MQTTPublisher {
	if onError == nil {
		onError = func(string, error) {}
	}
	return &MQTTPublisher{client: client, qos: qos, log: log, onError: onError}
}

// Publish queues payload on topic without waiting for the broker. Delivery
// failures are reported to the publisher's ErrorFunc.
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := p.client.Publish(topic, p.qos, false, payload)
	p.published.Add(1)

	select {
	case <-token.Done():
		return token.Error()
	default:
	}
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			p.onError(topic, err)
		}
	}()
	return nil
}

// Published returns the number of messages handed to the client.
func (p *MQTTPublisher) Published() uint64 {
	return p.published.Load()
}

// Close disconnects from the broker, waiting briefly for in-flight messages.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	p.log.Info("mqtt disconnected", slog.Uint64("published", p.published.Load()))
	return nil
}

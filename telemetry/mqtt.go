package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"sensoralert/shared"
)

const (
	DefaultConnectAttempts = 3
	DefaultReconnectDelay  = 3 * time.Second
	connectTimeout         = 10 * time.Second
)

// Connect tries the broker a bounded number of times, waiting delay between
// attempts. It returns ErrConnect once attempts are used up.
func Connect(ctx context.Context, client mqtt.Client, name string, attempts int, delay time.Duration) error {
	if attempts <= 0 {
		attempts = DefaultConnectAttempts
	}
	for attempt := 1; ; attempt++ {
		token := client.Connect()
		var err error
		if !token.WaitTimeout(connectTimeout) {
			err = fmt.Errorf("timed out after %s", connectTimeout)
		} else {
			err = token.Error()
		}
		if err == nil {
			return nil
		}
		log.Warnf("%s connect failed (attempt %d/%d): %v", name, attempt, attempts, err)
		if attempt >= attempts {
			return fmt.Errorf("%w: %s after %d attempts: %v", ErrConnect, name, attempts, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// publish waits for the token or the context, whichever comes first.
func publish(ctx context.Context, client mqtt.Client, topic string, qos byte, payload []byte) error {
	if !client.IsConnectionOpen() {
		return ErrNotConnected
	}
	token := client.Publish(topic, qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func clientOptions(broker, clientID, username, password string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("connected to MQTT broker", "broker", broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost", "broker", broker, "err", err)
	})
	return opts
}

// MQTTSink publishes the JSON message, by default to "<deviceID>/pub".
type MQTTSink struct {
	client   mqtt.Client
	topic    string
	qos      byte
	attempts int
	delay    time.Duration
}

func NewMQTTSink(cfg shared.MQTTSinkConfig, deviceID string) (*MQTTSink, error) {
	tlsCfg, err := NewTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = deviceID
	}
	if clientID == "" {
		clientID = "sensoralert-" + uuid.NewString()[:8]
	}
	topic := cfg.Topic
	if topic == "" {
		topic = deviceID + "/pub"
	}

	opts := clientOptions(cfg.Endpoint, clientID, cfg.Username, cfg.Password)
	if tlsCfg != nil {
		opts.SetTLSConfig(tlsCfg)
	}
	delay := shared.Ms(cfg.RetryDelayMs)
	if delay == 0 {
		delay = DefaultReconnectDelay
	}
	return &MQTTSink{
		client:   mqtt.NewClient(opts),
		topic:    topic,
		qos:      cfg.QoS,
		attempts: cfg.Attempts,
		delay:    delay,
	}, nil
}

func (s *MQTTSink) Name() string  { return "mqtt" }
func (s *MQTTSink) Topic() string { return s.topic }

// Connect makes bounded connection attempts; the caller restarts on
// ErrConnect.
func (s *MQTTSink) Connect(ctx context.Context) error {
	return Connect(ctx, s.client, "mqtt", s.attempts, s.delay)
}

func (s *MQTTSink) Publish(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return publish(ctx, s.client, s.topic, s.qos, payload)
}

func (s *MQTTSink) Close() error {
	log.Info("Disconnecting from MQTT broker")
	s.client.Disconnect(250)
	return nil
}

package telemetry

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"sensoralert/shared"
)

type connector interface {
	Connect(ctx context.Context) error
}

// NewSinks builds and connects every configured sink. Broker connections
// use bounded attempts and fail with ErrConnect.
func NewSinks(ctx context.Context, cfg shared.TelemetryConfig, deviceID string) ([]Sink, error) {
	var sinks []Sink

	if cfg.MQTT != nil {
		s, err := NewMQTTSink(*cfg.MQTT, deviceID)
		if err != nil {
			return nil, fmt.Errorf("mqtt sink: %w", err)
		}
		sinks = append(sinks, s)
		log.Infof("publishing to MQTT topic: ['%s'] with Qos: [%d]", s.Topic(), cfg.MQTT.QoS)
	}
	if cfg.Telegraf != nil {
		sinks = append(sinks, NewTelegrafSink(cfg.Telegraf.URL, cfg.Telegraf.Measurement))
		log.Info("publishing to Telegraf", "url", cfg.Telegraf.URL)
	}
	if cfg.Webhook != nil {
		s, err := NewWebhookSink(*cfg.Webhook)
		if err != nil {
			return nil, fmt.Errorf("webhook sink: %w", err)
		}
		sinks = append(sinks, s)
		log.Info("publishing to webhook", "url", cfg.Webhook.URL)
	}
	if cfg.Kafka != nil {
		sinks = append(sinks, NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		log.Info("publishing to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	if cfg.Mesh != nil {
		s, err := NewMeshSink(*cfg.Mesh, deviceID)
		if err != nil {
			return nil, fmt.Errorf("mesh sink: %w", err)
		}
		sinks = append(sinks, s)
		log.Info("publishing to mesh", "topic", s.topic)
	}

	for _, s := range sinks {
		if c, ok := s.(connector); ok {
			if err := c.Connect(ctx); err != nil {
				closeAll(sinks)
				return nil, err
			}
		}
	}
	return sinks, nil
}

func closeAll(sinks []Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

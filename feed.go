package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensoralert/mesh"
	"sensoralert/shared"
	"sensoralert/telemetry"
	"sensoralert/utils"
)

var errNoTopics = errors.New("no topics listed in feed config")

// channelKeys expands the configured base64 channel keys.
func channelKeys(b64 map[string]string) (map[string][]byte, error) {
	keys := make(map[string][]byte, len(b64))
	for name, v := range b64 {
		log.Debugf("creating key %s, value %s", name, v)
		k, err := mesh.ExpandKey(v)
		if err != nil {
			return nil, fmt.Errorf("invalid channel key %s: %w", name, err)
		}
		keys[name] = k
	}
	return keys, nil
}

// startFeed subscribes to every configured topic and pushes decoded readings
// into sink. The broker gets cfg.ConnectAttempts tries before ErrConnect.
func startFeed(ctx context.Context, cfg shared.FeedConfig, sink shared.ReadingSink) (mqtt.Client, error) {
	if len(cfg.Topics) == 0 {
		return nil, errNoTopics
	}
	keys, err := channelKeys(cfg.B64Keys)
	if err != nil {
		return nil, err
	}

	handlers := shared.FeedHandlers{}
	for topic, p := range cfg.Topics {
		h, err := loadFeedHandler(p, keys)
		if err != nil {
			return nil, err
		}
		handlers[topic] = h
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetDefaultPublishHandler(makeHandler(handlers, sink))

	delay := telemetry.DefaultReconnectDelay
	if cfg.ReconnectDelayMs > 0 {
		delay = shared.Ms(cfg.ReconnectDelayMs)
	}
	client := mqtt.NewClient(opts)
	if err := telemetry.Connect(ctx, client, "feed", cfg.ConnectAttempts, delay); err != nil {
		return nil, err
	}
	log.Info("connected to feed broker", "broker", cfg.Broker)

	for topic, v := range cfg.Topics {
		log.Infof("subscribed to topic: ['%s'] with Qos: [%d]", topic, v.QoS)
	}
	if token := client.SubscribeMultiple(utils.TopicsQoSFromConfig(cfg.Topics), nil); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscription error: %w", token.Error())
	}
	return client, nil
}

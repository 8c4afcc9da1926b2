package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensoralert/mesh"
	"sensoralert/sensor"
	"sensoralert/shared"
	"sensoralert/telemetry"
)

func TestStartFeedNeedsTopics(t *testing.T) {
	_, err := startFeed(context.Background(), shared.FeedConfig{Broker: "tcp://127.0.0.1:1"}, sensor.NewFeed(time.Minute, time.Now))
	assert.ErrorIs(t, err, errNoTopics)
}

func TestStartFeedConnectIsBounded(t *testing.T) {
	cfg := shared.FeedConfig{
		Broker:           "tcp://127.0.0.1:1",
		ClientID:         "sensoralert-test",
		Topics:           map[string]shared.PluginConfig{"rtl_433/+/events": {Name: "rtl433"}},
		ConnectAttempts:  2,
		ReconnectDelayMs: 1,
	}
	start := time.Now()
	_, err := startFeed(context.Background(), cfg, sensor.NewFeed(time.Minute, time.Now))
	assert.ErrorIs(t, err, telemetry.ErrConnect)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Less(t, time.Since(start), 20*time.Second)
}

func TestChannelKeys(t *testing.T) {
	keys, err := channelKeys(map[string]string{"LongFast": mesh.DefaultKey})
	require.NoError(t, err)
	assert.Len(t, keys["LongFast"], 16)

	_, err = channelKeys(map[string]string{"Bad": "AQID"})
	assert.ErrorIs(t, err, mesh.ErrBadKey)
}

func TestRunReturnsSetupErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"device": {"id": "240ac412ab9f"},
		"sensor": {"driver": "thermocouple"},
		"indicator": {"backend": "console", "buzzer": "none"},
		"network": {"skip": true}
	}`), 0o644))

	err := run(options{configFile: file})
	assert.ErrorIs(t, err, sensor.ErrUnknownDriver)

	err = run(options{configFile: filepath.Join(dir, "missing.json")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

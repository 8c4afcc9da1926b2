package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"sensoralert/condition"
	"sensoralert/shared"
)

const (
	DefaultConfigFile = "config.json"
	DefaultEnvFile    = ".env"
	envPrefix         = "SENSORALERT_"

	minSampleIntervalMs = 1000
	maxSampleIntervalMs = 5000
)

// DefaultConfig is a simulated DHT11 with bench thresholds, indicating on
// the console.
func DefaultConfig() *shared.Config {
	cfg := &shared.Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *shared.Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Device.Type == "" {
		cfg.Device.Type = "Sensor"
	}
	if cfg.Device.Function == "" {
		cfg.Device.Function = "Temperature and Humidity"
	}
	if cfg.Device.Model == "" {
		cfg.Device.Model = "DHT11"
	}
	if cfg.Device.Interface == "" {
		cfg.Device.Interface = cfg.Network.Interface
	}
	if cfg.Controller.SampleIntervalMs == 0 {
		cfg.Controller.SampleIntervalMs = 3000
	}
	if cfg.Controller.TickIntervalMs == 0 {
		cfg.Controller.TickIntervalMs = 10
	}
	if cfg.Controller.FailureCap == 0 {
		cfg.Controller.FailureCap = 3
	}
	if cfg.Restart.DelayMs == 0 {
		cfg.Restart.DelayMs = 5000
	}
	if cfg.Restart.ExitCode == 0 {
		cfg.Restart.ExitCode = 3
	}
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = condition.ThresholdSet{
			condition.Temperature: {Low: 10, High: 25},
			condition.Humidity:    {Low: 10, High: 80},
		}
	}
	if cfg.Indicator.BlinkIntervalMs == 0 {
		cfg.Indicator.BlinkIntervalMs = 100
	}
	if cfg.Network.Attempts == 0 {
		cfg.Network.Attempts = 3
	}
	if cfg.Network.RetryDelayMs == 0 {
		cfg.Network.RetryDelayMs = 5000
	}
	if cfg.Telemetry.QueueSize == 0 {
		cfg.Telemetry.QueueSize = 16
	}
}

// Validate checks the values the control loop depends on.
func Validate(cfg *shared.Config) error {
	c := cfg.Controller
	if c.SampleIntervalMs < minSampleIntervalMs || c.SampleIntervalMs > maxSampleIntervalMs {
		return fmt.Errorf("%w: sampleIntervalMs %d outside [%d, %d]", shared.ErrInvalidConfig, c.SampleIntervalMs, minSampleIntervalMs, maxSampleIntervalMs)
	}
	if c.TickIntervalMs < 1 || c.TickIntervalMs > cfg.Indicator.BlinkIntervalMs {
		return fmt.Errorf("%w: tickIntervalMs %d must be between 1 and the blink interval", shared.ErrInvalidConfig, c.TickIntervalMs)
	}
	if c.FailureCap < 1 {
		return fmt.Errorf("%w: failureCap %d", shared.ErrInvalidConfig, c.FailureCap)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return err
	}
	if cfg.Sensor.Driver == "feed" && cfg.Feed.Broker == "" {
		return fmt.Errorf("%w: feed driver needs feed.broker", shared.ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads the JSON file, then the .env file, then environment
// overrides, then fills defaults and validates.
func LoadConfig(filename, envPath string) (*shared.Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = file.Close()
		if err != nil {
			log.Warnf("failed to close config file")
		}
	}()

	var cfg shared.Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling JSON config file %s: %w", filename, err)
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			log.Warnf("could not load .env file from %s: %v", envPath, err)
		} else {
			log.Debugf("loaded .env file from %s", envPath)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envString(name string, dst *string) {
	if val := os.Getenv(envPrefix + name); val != "" {
		*dst = val
		log.Debugf("ENV Override: %s%s", envPrefix, name)
	}
}

func envInt(name string, dst *int) error {
	val := os.Getenv(envPrefix + name)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q", shared.ErrInvalidConfig, envPrefix, name, val)
	}
	*dst = n
	log.Debugf("ENV Override: %s%s=%d", envPrefix, name, n)
	return nil
}

func applyEnv(cfg *shared.Config) error {
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("DEVICE_ID", &cfg.Device.ID)
	envString("WIFI_IFACE", &cfg.Network.Interface)
	envString("PROBE_HOST", &cfg.Network.ProbeHost)
	envString("SENSOR_DRIVER", &cfg.Sensor.Driver)
	envString("INDICATOR_BACKEND", &cfg.Indicator.Backend)
	envString("STATUS_LISTEN", &cfg.Status.Listen)
	envString("FEED_BROKER", &cfg.Feed.Broker)
	envString("FEED_USERNAME", &cfg.Feed.Username)
	envString("FEED_PASSWORD", &cfg.Feed.Password)
	if err := envInt("SAMPLE_INTERVAL_MS", &cfg.Controller.SampleIntervalMs); err != nil {
		return err
	}
	if err := envInt("FAILURE_CAP", &cfg.Controller.FailureCap); err != nil {
		return err
	}

	if os.Getenv(envPrefix+"MQTT_ENDPOINT") != "" && cfg.Telemetry.MQTT == nil {
		cfg.Telemetry.MQTT = &shared.MQTTSinkConfig{}
	}
	if m := cfg.Telemetry.MQTT; m != nil {
		envString("MQTT_ENDPOINT", &m.Endpoint)
		envString("MQTT_TOPIC", &m.Topic)
		envString("MQTT_CA_FILE", &m.TLS.CAFile)
		envString("MQTT_CERT_FILE", &m.TLS.CertFile)
		envString("MQTT_KEY_FILE", &m.TLS.KeyFile)
		envString("MQTT_PKCS12_FILE", &m.TLS.PKCS12File)
		envString("MQTT_PKCS12_PASSWORD", &m.TLS.PKCS12Password)
	}

	if os.Getenv(envPrefix+"TELEGRAF_URL") != "" && cfg.Telemetry.Telegraf == nil {
		cfg.Telemetry.Telegraf = &shared.TelegrafConfig{}
	}
	if t := cfg.Telemetry.Telegraf; t != nil {
		envString("TELEGRAF_URL", &t.URL)
	}
	return nil
}

package shared

import (
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensoralert/condition"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrFeedHandler        = errors.New("failed to handle feed topic")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// ReadingSink receives readings decoded from an MQTT feed.
type ReadingSink interface {
	Put(values map[string]float64, at time.Time)
}

// FeedHandler decodes messages from one subscribed topic. Plugins export a
// variable named Handler of this type.
type FeedHandler interface {
	Process(topic string, sink ReadingSink, msg mqtt.Message) error
}

// FeedHandlers maps a topic filter to its handler.
type FeedHandlers map[string]FeedHandler

// Channel PSK in both base64 and raw form
type Key struct {
	Hex []byte
	Txt string
}

// PluginConfig selects the handler for one subscribed topic. An empty Path
// picks the built-in handler called Name.
type PluginConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
	QoS  byte   `json:"qos"`
}

// FeedConfig is the MQTT input side.
type FeedConfig struct {
	Broker   string                  `json:"broker"`
	Topics   map[string]PluginConfig `json:"topics"`
	ClientID string                  `json:"clientID"`
	Username string                  `json:"username"`
	Password string                  `json:"password"`
	B64Keys  map[string]string       `json:"b64Key"`

	ConnectAttempts  int `json:"connectAttempts"`
	ReconnectDelayMs int `json:"reconnectDelayMs"`
}

type DeviceConfig struct {
	Type      string `json:"type"`
	Function  string `json:"function"`
	Model     string `json:"model"`
	ID        string `json:"id"`
	Interface string `json:"interface"`
}

type ControllerConfig struct {
	SampleIntervalMs int `json:"sampleIntervalMs"`
	TickIntervalMs   int `json:"tickIntervalMs"`
	FailureCap       int `json:"failureCap"`
}

type RestartConfig struct {
	DelayMs  int `json:"delayMs"`
	ExitCode int `json:"exitCode"`
}

type SimulatedConfig struct {
	Seed        int64                    `json:"seed"`
	FailureRate float64                  `json:"failureRate"`
	Quantities  map[string]SimulatedWave `json:"quantities"`
}

type SimulatedWave struct {
	Base   float64 `json:"base"`
	Jitter float64 `json:"jitter"`
}

type HwmonConfig struct {
	Device  int `json:"device"`
	Channel int `json:"channel"`
}

type IIOConfig struct {
	Device   int               `json:"device"`
	Channels map[string]string `json:"channels"`
}

type GPIOInputConfig struct {
	Pin       int    `json:"pin"`
	ActiveLow bool   `json:"activeLow"`
	Quantity  string `json:"quantity"`
}

type ModbusRegister struct {
	Quantity string  `json:"quantity"`
	Address  uint16  `json:"address"`
	Input    bool    `json:"input"`
	Signed   bool    `json:"signed"`
	Scale    float64 `json:"scale"`
}

type ModbusConfig struct {
	URL       string           `json:"url"`
	UnitID    uint8            `json:"unitID"`
	Speed     uint             `json:"speed"`
	Parity    string           `json:"parity"`
	StopBits  uint             `json:"stopBits"`
	TimeoutMs int              `json:"timeoutMs"`
	Registers []ModbusRegister `json:"registers"`
}

type FeedSensorConfig struct {
	MaxAgeMs int `json:"maxAgeMs"`
}

type SensorConfig struct {
	Driver       string           `json:"driver"`
	Root         string           `json:"root"`
	Retries      int              `json:"retries"`
	RetryDelayMs int              `json:"retryDelayMs"`
	Simulated    SimulatedConfig  `json:"simulated"`
	Hwmon        HwmonConfig      `json:"hwmon"`
	IIO          IIOConfig        `json:"iio"`
	GPIO         GPIOInputConfig  `json:"gpio"`
	Modbus       ModbusConfig     `json:"modbus"`
	Feed         FeedSensorConfig `json:"feed"`
}

// BehaviorConfig overrides one entry of the default table. Unset fields keep
// the default.
type BehaviorConfig struct {
	Color  string `json:"color"`
	Blink  *bool  `json:"blink"`
	Buzzer string `json:"buzzer"`
}

type RGBPins struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
}

type PWMChannel struct {
	Chip        int `json:"chip"`
	Channel     int `json:"channel"`
	FrequencyHz int `json:"frequencyHz"`
}

type IndicatorConfig struct {
	Backend         string                    `json:"backend"`
	Buzzer          string                    `json:"buzzer"`
	Root            string                    `json:"root"`
	BlinkIntervalMs int                       `json:"blinkIntervalMs"`
	ActiveLow       bool                      `json:"activeLow"`
	GPIO            RGBPins                   `json:"gpio"`
	PWMChip         int                       `json:"pwmChip"`
	PWM             RGBPins                   `json:"pwm"`
	PWMFrequencyHz  int                       `json:"pwmFrequencyHz"`
	BuzzerPWM       PWMChannel                `json:"buzzerPWM"`
	LinkLampPin     int                       `json:"linkLampPin"`
	ErrorLampPin    int                       `json:"errorLampPin"`
	Behaviors       map[string]BehaviorConfig `json:"behaviors"`
}

type NetworkConfig struct {
	Skip         bool   `json:"skip"`
	Interface    string `json:"interface"`
	Attempts     int    `json:"attempts"`
	RetryDelayMs int    `json:"retryDelayMs"`
	ProbeHost    string `json:"probeHost"`
}

type TLSConfig struct {
	CAFile         string `json:"caFile"`
	CertFile       string `json:"certFile"`
	KeyFile        string `json:"keyFile"`
	PKCS12File     string `json:"pkcs12File"`
	PKCS12Password string `json:"pkcs12Password"`
	Insecure       bool   `json:"insecure"`
}

type MQTTSinkConfig struct {
	Endpoint     string    `json:"endpoint"`
	ClientID     string    `json:"clientID"`
	Topic        string    `json:"topic"`
	QoS          byte      `json:"qos"`
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	TLS          TLSConfig `json:"tls"`
	Attempts     int       `json:"attempts"`
	RetryDelayMs int       `json:"retryDelayMs"`
}

type TelegrafConfig struct {
	URL         string `json:"url"`
	Measurement string `json:"measurement"`
}

type WebhookConfig struct {
	URL       string    `json:"url"`
	TLS       TLSConfig `json:"tls"`
	TimeoutMs int       `json:"timeoutMs"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// MeshConfig publishes as a Meshtastic node. Setting To with both keys
// sends PKI direct messages instead of channel broadcasts.
type MeshConfig struct {
	Broker        string `json:"broker"`
	ClientID      string `json:"clientID"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Region        string `json:"region"`
	Channel       string `json:"channel"`
	Key           string `json:"key"`
	NodeID        string `json:"nodeID"`
	To            string `json:"to"`
	PrivateKey    string `json:"privateKey"`
	PeerPublicKey string `json:"peerPublicKey"`
}

type TelemetryConfig struct {
	PublishErrors bool            `json:"publishErrors"`
	QueueSize     int             `json:"queueSize"`
	MQTT          *MQTTSinkConfig `json:"mqtt"`
	Telegraf      *TelegrafConfig `json:"telegraf"`
	Webhook       *WebhookConfig  `json:"webhook"`
	Kafka         *KafkaConfig    `json:"kafka"`
	Mesh          *MeshConfig     `json:"mesh"`
}

type StatusConfig struct {
	Listen string `json:"listen"`
}

// Config
type Config struct {
	LogLevel   string                 `json:"logLevel"`
	Device     DeviceConfig           `json:"device"`
	Controller ControllerConfig       `json:"controller"`
	Restart    RestartConfig          `json:"restart"`
	Thresholds condition.ThresholdSet `json:"thresholds"`
	Sensor     SensorConfig           `json:"sensor"`
	Indicator  IndicatorConfig        `json:"indicator"`
	Network    NetworkConfig          `json:"network"`
	Telemetry  TelemetryConfig        `json:"telemetry"`
	Feed       FeedConfig             `json:"feed"`
	Status     StatusConfig           `json:"status"`
}

// Ms converts a millisecond config value.
func Ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

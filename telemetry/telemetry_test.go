package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensoralert/condition"
	"sensoralert/device"
	"sensoralert/mesh"
	"sensoralert/shared"
)

var (
	at   = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	info = device.Info{Type: "Sensor", Function: "Temperature and Humidity", Model: "DHT11", ID: "240ac412ab9f"}
	wifi = device.Network{SSID: "greenhouse", IP: "192.168.4.20", RSSI: -61}
)

func dhtReading(temp, hum float64) condition.Reading {
	return condition.NewReading(map[string]float64{condition.Temperature: temp, condition.Humidity: hum}, at)
}

func TestMessageJSON(t *testing.T) {
	m := NewMessage(info, wifi, condition.AboveRange, dhtReading(26.4, 55))
	b, err := json.Marshal(m)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "Sensor", doc["deviceType"])
	assert.Equal(t, "Temperature and Humidity", doc["deviceFunction"])
	assert.Equal(t, "DHT11", doc["deviceModel"])
	assert.Equal(t, "240ac412ab9f", doc["deviceID"])
	assert.Equal(t, 26.4, doc["temp_C"])
	assert.Equal(t, 80.0, doc["temp_F"])
	assert.Equal(t, 55.0, doc["humidity"])
	assert.Equal(t, "Above Normal", doc["status"])
	assert.Equal(t, "greenhouse", doc["SSID"])
	assert.Equal(t, "192.168.4.20", doc["IP"])
	assert.Equal(t, -61.0, doc["RSSI"])
	assert.Equal(t, "2024-06-01T10:30:00Z", doc["timestamp"])
}

func TestMessageForInvalidReading(t *testing.T) {
	m := NewMessage(info, wifi, condition.SensorError, condition.Invalid(at))
	b, err := json.Marshal(m)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "Error", doc["status"])
	assert.Contains(t, doc, "temp_C")
	assert.Nil(t, doc["temp_C"])
	assert.Nil(t, doc["humidity"])
	assert.NotContains(t, doc, "values")
}

func TestFahrenheit(t *testing.T) {
	assert.Equal(t, 72.0, Fahrenheit(22.2))
	assert.Equal(t, 32.0, Fahrenheit(0))
	assert.Equal(t, -4.0, Fahrenheit(-20))
}

func TestBuilderCachesNetwork(t *testing.T) {
	lookups := 0
	now := at
	b := NewBuilder(info, func(context.Context) device.Network { lookups++; return wifi }, time.Minute)
	b.now = func() time.Time { return now }

	m := b.Build(context.Background(), condition.Normal, dhtReading(20, 50))
	assert.Equal(t, "greenhouse", m.SSID)
	b.Build(context.Background(), condition.Normal, dhtReading(20, 50))
	assert.Equal(t, 1, lookups)

	now = now.Add(time.Minute)
	b.Build(context.Background(), condition.Normal, dhtReading(20, 50))
	assert.Equal(t, 2, lookups)
}

func TestLineProtocol(t *testing.T) {
	m := NewMessage(info, wifi, condition.BelowRange, dhtReading(8.5, 40))
	assert.Equal(t,
		"sensor_readings,device=240ac412ab9f,status=Below\\ Normal humidity=40,temperature=8.5 1717237800000000000",
		LineProtocol(DefaultMeasurement, m))

	bad := NewMessage(info, wifi, condition.SensorError, condition.Invalid(time.Time{}))
	assert.Equal(t, "sensor_readings,device=240ac412ab9f,status=Error error=1i", LineProtocol(DefaultMeasurement, bad))
}

func TestTelegrafSink(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewTelegrafSink(srv.URL, "")
	require.NoError(t, s.Publish(context.Background(), NewMessage(info, wifi, condition.Normal, dhtReading(20, 50))))
	assert.Contains(t, body, "sensor_readings,device=240ac412ab9f,status=Normal humidity=50,temperature=20")
}

func TestTelegrafSinkRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewTelegrafSink(srv.URL, "").Publish(context.Background(), NewMessage(info, wifi, condition.Normal, dhtReading(20, 50)))
	assert.ErrorIs(t, err, ErrPublishStatus)
}

func TestWebhookSink(t *testing.T) {
	var got Message
	status := http.StatusAccepted
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
	}))
	defer srv.Close()

	s, err := NewWebhookSink(shared.WebhookConfig{URL: srv.URL, TLS: shared.TLSConfig{Insecure: true}})
	require.NoError(t, err)
	require.NoError(t, s.Publish(context.Background(), NewMessage(info, wifi, condition.Normal, dhtReading(21, 45))))
	assert.Equal(t, "Normal", got.Status)
	require.NotNil(t, got.TempC)
	assert.Equal(t, 21.0, *got.TempC)

	status = http.StatusInternalServerError
	err = s.Publish(context.Background(), NewMessage(info, wifi, condition.Normal, dhtReading(21, 45)))
	assert.ErrorIs(t, err, ErrPublishStatus)
}

type recordSink struct {
	mu     sync.Mutex
	name   string
	msgs   []Message
	err    error
	closed bool
}

func (s *recordSink) Name() string { return s.name }

func (s *recordSink) Publish(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	return s.err
}

func (s *recordSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestDispatcherPublishesToEverySink(t *testing.T) {
	failing := &recordSink{name: "broken", err: errors.New("connection refused")}
	ok := &recordSink{name: "ok"}
	d := NewDispatcher(NewBuilder(info, nil, 0), []Sink{failing, ok}, 4)

	var mu sync.Mutex
	results := map[string]error{}
	d.OnPublish = func(sink string, err error) {
		mu.Lock()
		results[sink] = err
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go d.Run(ctx, &wg)

	require.True(t, d.Submit(condition.Normal, dhtReading(20, 50)))
	require.Eventually(t, func() bool { return ok.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, failing.count())

	cancel()
	wg.Wait()
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
	mu.Lock()
	assert.Error(t, results["broken"])
	assert.NoError(t, results["ok"])
	mu.Unlock()
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(NewBuilder(info, nil, 0), nil, 1)
	drops := 0
	d.OnDrop = func() { drops++ }

	assert.True(t, d.Submit(condition.Normal, dhtReading(20, 50)))
	assert.False(t, d.Submit(condition.Normal, dhtReading(20, 50)))
	assert.Equal(t, 1, drops)
}

type doneToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *doneToken {
	d := make(chan struct{})
	close(d)
	return &doneToken{err: err, done: d}
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mqtt.Client
	connectErrs  []error
	connects     int
	open         bool
	published    []published
	disconnected bool
}

func (c *fakeClient) Connect() mqtt.Token {
	var err error
	if c.connects < len(c.connectErrs) {
		err = c.connectErrs[c.connects]
	}
	c.connects++
	c.open = err == nil
	return newToken(err)
}

func (c *fakeClient) IsConnectionOpen() bool { return c.open }

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return newToken(nil)
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true; c.open = false }

func TestMQTTSinkConnectRetries(t *testing.T) {
	refused := errors.New("connection refused")
	fc := &fakeClient{connectErrs: []error{refused, nil}}
	s := &MQTTSink{client: fc, topic: "240ac412ab9f/pub", attempts: 3, delay: time.Millisecond}
	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, 2, fc.connects)
}

func TestMQTTSinkConnectBounded(t *testing.T) {
	refused := errors.New("connection refused")
	fc := &fakeClient{connectErrs: []error{refused, refused, refused, nil}}
	s := &MQTTSink{client: fc, topic: "x/pub", attempts: 3, delay: time.Millisecond}
	err := s.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnect)
	assert.Equal(t, 3, fc.connects)
}

func TestMQTTSinkPublish(t *testing.T) {
	fc := &fakeClient{}
	s := &MQTTSink{client: fc, topic: "240ac412ab9f/pub", qos: 1}
	msg := NewMessage(info, wifi, condition.Normal, dhtReading(20, 50))

	assert.ErrorIs(t, s.Publish(context.Background(), msg), ErrNotConnected)

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Publish(context.Background(), msg))
	require.Len(t, fc.published, 1)
	assert.Equal(t, "240ac412ab9f/pub", fc.published[0].topic)
	assert.Equal(t, byte(1), fc.published[0].qos)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(fc.published[0].payload, &doc))
	assert.Equal(t, "Normal", doc["status"])

	require.NoError(t, s.Close())
	assert.True(t, fc.disconnected)
}

func TestNewMQTTSinkDefaultTopic(t *testing.T) {
	s, err := NewMQTTSink(shared.MQTTSinkConfig{Endpoint: "tcp://127.0.0.1:1883"}, "240ac412ab9f")
	require.NoError(t, err)
	assert.Equal(t, "240ac412ab9f/pub", s.Topic())
	assert.Equal(t, DefaultReconnectDelay, s.delay)
}

func TestMeshSinkPublish(t *testing.T) {
	fc := &fakeClient{open: true}
	key, err := mesh.ExpandKey(mesh.DefaultKey)
	require.NoError(t, err)
	s, err := NewMeshSink(shared.MeshConfig{Broker: "tcp://127.0.0.1:1883", Key: mesh.DefaultKey}, "240ac412ab9f")
	require.NoError(t, err)
	s.client = fc
	assert.Equal(t, "msh/US/2/e/LongFast/!c412ab9f", s.topic)

	require.NoError(t, s.Publish(context.Background(), NewMessage(info, wifi, condition.Normal, dhtReading(20.5, 50))))
	require.Len(t, fc.published, 1)

	tel, err := mesh.DecodeTelemetry(fc.published[0].payload, map[string][]byte{"LongFast": key})
	require.NoError(t, err)
	assert.Equal(t, uint32(0xc412ab9f), tel.From)
	assert.Equal(t, 20.5, tel.Values[condition.Temperature])
}

package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const DefaultMeasurement = "sensor_readings"

var tagEscaper = strings.NewReplacer(",", `\,`, "=", `\=`, " ", `\ `)

// LineProtocol renders m as one InfluxDB line. Invalid readings carry an
// error field since a line needs at least one field.
func LineProtocol(measurement string, m Message) string {
	var b strings.Builder
	b.WriteString(tagEscaper.Replace(measurement))
	b.WriteString(",device=")
	b.WriteString(tagEscaper.Replace(m.DeviceID))
	b.WriteString(",status=")
	b.WriteString(tagEscaper.Replace(m.Status))
	b.WriteByte(' ')

	keys := make([]string, 0, len(m.Values))
	for k := range m.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		b.WriteString("error=1i")
	}
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tagEscaper.Replace(k))
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(m.Values[k], 'f', -1, 64))
	}
	if !m.At.IsZero() {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(m.At.UnixNano(), 10))
	}
	return b.String()
}

// TelegrafSink posts line protocol to a Telegraf http_listener_v2 input.
type TelegrafSink struct {
	URL         string
	Measurement string
	client      *http.Client
}

func NewTelegrafSink(url, measurement string) *TelegrafSink {
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	return &TelegrafSink{URL: url, Measurement: measurement, client: &http.Client{Timeout: 15 * time.Second}}
}

func (s *TelegrafSink) Name() string { return "telegraf" }

func (s *TelegrafSink) Publish(ctx context.Context, m Message) error {
	line := LineProtocol(s.Measurement, m)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewBufferString(line))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	if err := resp.Body.Close(); err != nil {
		log.Warn("failed to close response body", "err", err)
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: telegraf %s", ErrPublishStatus, resp.Status)
	}
	log.Debugf("metric published to Telegraf: %s", line)
	return nil
}

func (s *TelegrafSink) Close() error { return nil }

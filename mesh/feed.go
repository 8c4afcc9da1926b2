package mesh

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensoralert/shared"
)

// FeedHandler reads environment telemetry from Meshtastic nodes on MQTT.
// Keys maps channel names to expanded PSKs.
type FeedHandler struct {
	Keys map[string][]byte
	// Node restricts the feed to one sender; zero accepts every node.
	Node uint32
}

func (h FeedHandler) Process(topic string, sink shared.ReadingSink, msg mqtt.Message) error {
	tel, err := DecodeTelemetry(msg.Payload(), h.Keys)
	if err != nil {
		if errors.Is(err, ErrNotTelemetry) {
			return nil
		}
		log.Warnf("Failed to parse mesh packet: Topic: [%s],  %v", topic, err)
		return shared.ErrFeedHandler
	}
	if h.Node != 0 && tel.From != h.Node {
		return nil
	}
	if len(tel.Values) == 0 {
		return nil
	}
	at := tel.At
	if at.IsZero() {
		at = time.Now()
	}
	log.Debug("mesh telemetry", "from", NodeIDString(tel.From), "channel", tel.Channel, "values", tel.Values)
	sink.Put(tel.Values, at)
	return nil
}

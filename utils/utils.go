package utils

import (
	"fmt"
	"strings"

	"sensoralert/shared"
)

func TopicsQoSFromConfig(cfg map[string]shared.PluginConfig) map[string]byte {
	var transformed = make(map[string]byte)

	for topic, plug := range cfg {
		transformed[topic] = plug.QoS
	}

	return transformed
}

// TopicMatches returns true if the received topic matches the subscription
// filter. '+' matches one level and a trailing '#' matches the rest.
func TopicMatches(subscription, received string) bool {
	if subscription == "#" {
		return true
	}
	sub := strings.Split(subscription, "/")
	got := strings.Split(received, "/")
	for i, s := range sub {
		if s == "#" {
			// '#' must be last; it also matches the parent level
			return i == len(sub)-1
		}
		if i >= len(got) {
			return false
		}
		if s != "+" && s != got[i] {
			return false
		}
	}
	return len(sub) == len(got)
}

func GetNthTopicSegmentFromEnd(topic string, n int) string {
	parts := strings.Split(topic, "/")
	index := len(parts) - 1 - n
	if index < 0 || index >= len(parts) {
		return ""
	}
	return parts[index]
}

// ReplaceBinaryWithHex replaces non-printable characters with their hex
// escape so payloads can be logged.
func ReplaceBinaryWithHex(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		} else {
			b.WriteString(fmt.Sprintf("\\x%02X", r))
		}
	}
	return b.String()
}

// IsLikelyJSON reports whether the first non-space byte opens an object.
func IsLikelyJSON(payload []byte) bool {
	for _, b := range payload {
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		return b == '{'
	}
	return false
}

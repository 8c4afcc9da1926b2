package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sensoralert/shared"
)

func TestTopicMatches(t *testing.T) {
	cases := []struct {
		sub, topic string
		want       bool
	}{
		{"#", "anything/at/all", true},
		{"rtl_433/#", "rtl_433/Acurite-Tower/1234", true},
		{"rtl_433/#", "rtl_433", true},
		{"rtl_433/#", "msh/US/2/e", false},
		{"msh/+/2/e/+/+", "msh/US/2/e/LongFast/!a1b2c3d4", true},
		{"msh/+/2/e/+/+", "msh/US/2/e/LongFast", false},
		{"sensors/kitchen", "sensors/kitchen", true},
		{"sensors/kitchen", "sensors/kitchen/temp", false},
		{"sensors/+", "sensors/kitchen/temp", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TopicMatches(tc.sub, tc.topic), "%s vs %s", tc.sub, tc.topic)
	}
}

func TestGetNthTopicSegmentFromEnd(t *testing.T) {
	topic := "msh/US/2/e/PKI/!a1b2c3d4"
	assert.Equal(t, "!a1b2c3d4", GetNthTopicSegmentFromEnd(topic, 0))
	assert.Equal(t, "PKI", GetNthTopicSegmentFromEnd(topic, 1))
	assert.Equal(t, "", GetNthTopicSegmentFromEnd(topic, 6))
}

func TestTopicsQoSFromConfig(t *testing.T) {
	got := TopicsQoSFromConfig(map[string]shared.PluginConfig{
		"rtl_433/#":  {Name: "rtl433", QoS: 1},
		"msh/US/2/#": {Name: "msh"},
	})
	assert.Equal(t, map[string]byte{"rtl_433/#": 1, "msh/US/2/#": 0}, got)
}

func TestPayloadHelpers(t *testing.T) {
	assert.True(t, IsLikelyJSON([]byte("  \n{\"a\":1}")))
	assert.False(t, IsLikelyJSON([]byte{0x0a, 0x02, 0x08}))
	assert.False(t, IsLikelyJSON(nil))
	assert.Equal(t, `ok\x00\x7F`, ReplaceBinaryWithHex("ok\x00\x7f"))
}

// Package mesh encodes and decodes Meshtastic environment telemetry carried
// in MQTT ServiceEnvelopes.
package mesh

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rabarar/meshtool-go/public/radio"
)

var (
	ErrBadKey         = errors.New("invalid channel key")
	ErrBadNodeID      = errors.New("invalid node id")
	ErrNoPacket       = errors.New("service envelope has no packet")
	ErrNoKey          = errors.New("no key for channel")
	ErrDecrypt        = errors.New("unable to decrypt payload")
	ErrUnknownPayload = errors.New("unknown payload type")
	ErrNotTelemetry   = errors.New("packet is not environment telemetry")
	ErrNoMetrics      = errors.New("no quantity maps to an environment metric")
)

// DefaultKey is the shorthand PSK of the public LongFast channel.
const DefaultKey = "AQ=="

// ExpandKey decodes a base64 channel PSK. A one byte key selects the
// default PSK (1) or one of its variants (2..255); zero or empty means no
// encryption and returns nil.
func ExpandKey(b64 string) ([]byte, error) {
	if b64 == "" {
		return nil, nil
	}
	b64 = strings.ReplaceAll(strings.ReplaceAll(b64, "-", "+"), "_", "/")
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	switch len(raw) {
	case 1:
		if raw[0] == 0 {
			return nil, nil
		}
		key := append([]byte(nil), radio.DefaultKey...)
		key[len(key)-1] += raw[0] - 1
		return key, nil
	case 16, 32:
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %d bytes", ErrBadKey, len(raw))
}

// ChannelHash is the channel slot carried in MeshPacket.Channel. An open
// channel hashes the name alone; a zero byte leaves the XOR unchanged.
func ChannelHash(name string, key []byte) uint32 {
	if len(key) == 0 {
		key = []byte{0}
	}
	h, _ := radio.ChannelHash(name, key)
	return h
}

// Crypt applies AES-CTR with the channel nonce. Encryption and decryption
// are the same operation.
func Crypt(data, key []byte, packetID, fromNode uint32) ([]byte, error) {
	out, err := radio.XOR(data, key, packetID, fromNode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	return out, nil
}

// ParseNodeID accepts "!a1b2c3d4", "a1b2c3d4" or a decimal node number.
func ParseNodeID(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "!") {
		s = s[1:]
		base = 16
	} else if len(s) == 8 {
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNodeID, s)
	}
	return uint32(v), nil
}

// NodeIDString renders a node number as "!a1b2c3d4".
func NodeIDString(n uint32) string {
	return fmt.Sprintf("!%08x", n)
}

// Topic is the MQTT topic a node publishes encrypted packets on.
func Topic(region, channel string, node uint32) string {
	return fmt.Sprintf("msh/%s/2/e/%s/%s", region, channel, NodeIDString(node))
}

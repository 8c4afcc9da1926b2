package telemetry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensoralert/mesh"
	"sensoralert/shared"
)

const (
	defaultMeshRegion  = "US"
	defaultMeshChannel = "LongFast"
)

// MeshSink publishes environment telemetry as a Meshtastic node would, so
// mesh clients and MQTT gateways show the readings.
type MeshSink struct {
	client  mqtt.Client
	topic   string
	channel string
	key     []byte
	node    uint32
	rng     *rand.Rand

	to      uint32
	priv    []byte
	peerPub []byte
}

func NewMeshSink(cfg shared.MeshConfig, deviceID string) (*MeshSink, error) {
	key, err := mesh.ExpandKey(cfg.Key)
	if err != nil {
		return nil, err
	}
	nodeID := cfg.NodeID
	if nodeID == "" && len(deviceID) >= 8 {
		// low 32 bits of the MAC, as firmware derives its node number
		nodeID = "!" + deviceID[len(deviceID)-8:]
	}
	node, err := mesh.ParseNodeID(nodeID)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultMeshRegion
	}
	channel := cfg.Channel
	if channel == "" {
		channel = defaultMeshChannel
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = mesh.NodeIDString(node)
	}
	s := &MeshSink{
		client:  mqtt.NewClient(clientOptions(cfg.Broker, clientID, cfg.Username, cfg.Password)),
		topic:   mesh.Topic(region, channel, node),
		channel: channel,
		key:     key,
		node:    node,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if cfg.To != "" {
		if s.to, err = mesh.ParseNodeID(cfg.To); err != nil {
			return nil, err
		}
		if s.priv, err = mesh.DecodeNodeKey(cfg.PrivateKey); err != nil {
			return nil, fmt.Errorf("privateKey: %w", err)
		}
		if s.peerPub, err = mesh.DecodeNodeKey(cfg.PeerPublicKey); err != nil {
			return nil, fmt.Errorf("peerPublicKey: %w", err)
		}
		s.topic = mesh.Topic(region, mesh.PKIChannel, node)
	}
	return s, nil
}

func (s *MeshSink) Name() string { return "mesh" }

func (s *MeshSink) Connect(ctx context.Context) error {
	return Connect(ctx, s.client, "mesh", DefaultConnectAttempts, DefaultReconnectDelay)
}

func (s *MeshSink) Publish(ctx context.Context, m Message) error {
	at := m.At
	if at.IsZero() {
		at = time.Now()
	}
	payload, err := mesh.EncodeTelemetry(m.Values, at, mesh.Packet{
		From:          s.node,
		ID:            s.rng.Uint32(),
		Channel:       s.channel,
		Key:           s.key,
		To:            s.to,
		ExtraNonce:    s.rng.Uint32(),
		PrivateKey:    s.priv,
		PeerPublicKey: s.peerPub,
	})
	if err != nil {
		return err
	}
	return publish(ctx, s.client, s.topic, 0, payload)
}

func (s *MeshSink) Close() error {
	s.client.Disconnect(250)
	return nil
}

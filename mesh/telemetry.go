package mesh

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/rabarar/meshtastic"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"sensoralert/condition"
)

// Broadcast is the destination of channel wide packets.
const Broadcast uint32 = 0xffffffff

const hopLimit = 3

// metricFields maps quantity names to EnvironmentMetrics fields.
var metricFields = map[string]protoreflect.Name{
	condition.Temperature: "temperature",
	condition.Humidity:    "relative_humidity",
	condition.Pressure:    "barometric_pressure",
	condition.Distance:    "distance",
	"gas_resistance":      "gas_resistance",
	"iaq":                 "iaq",
	"lux":                 "lux",
	"voltage":             "voltage",
	"current":             "current",
	"wind_speed":          "wind_speed",
}

// Packet addresses an outgoing telemetry packet.
type Packet struct {
	From    uint32
	ID      uint32
	Channel string
	// Key is the expanded PSK; nil sends the packet unencrypted.
	Key []byte

	// A direct message to To is sent when both keys are set.
	To            uint32
	ExtraNonce    uint32
	PrivateKey    []byte
	PeerPublicKey []byte
}

func (p Packet) direct() bool {
	return len(p.PrivateKey) > 0 && len(p.PeerPublicKey) > 0
}

// Telemetry is a decoded environment telemetry packet.
type Telemetry struct {
	From    uint32
	Channel string
	At      time.Time
	Values  map[string]float64
}

func floatField(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(name)
	if fd == nil || fd.Kind() != protoreflect.FloatKind {
		return nil
	}
	return fd
}

// EncodeTelemetry wraps values in a TELEMETRY_APP packet inside a
// ServiceEnvelope. Fields are set by name so schema revisions that add or
// drop metrics are tolerated.
func EncodeTelemetry(values map[string]float64, at time.Time, p Packet) ([]byte, error) {
	em := &meshtastic.EnvironmentMetrics{}
	emr := em.ProtoReflect()
	set := 0
	for q, v := range values {
		name, ok := metricFields[q]
		if !ok {
			continue
		}
		if fd := floatField(emr, name); fd != nil {
			emr.Set(fd, protoreflect.ValueOfFloat32(float32(v)))
			set++
		}
	}
	if set == 0 {
		return nil, ErrNoMetrics
	}

	tel := &meshtastic.Telemetry{}
	tr := tel.ProtoReflect()
	tr.Set(tr.Descriptor().Fields().ByName("environment_metrics"), protoreflect.ValueOfMessage(emr))
	if fd := tr.Descriptor().Fields().ByName("time"); fd != nil && fd.Kind() == protoreflect.Fixed32Kind {
		tr.Set(fd, protoreflect.ValueOfUint32(uint32(at.Unix())))
	}
	payload, err := proto.Marshal(tel)
	if err != nil {
		return nil, err
	}

	data := &meshtastic.Data{Portnum: meshtastic.PortNum_TELEMETRY_APP, Payload: payload}
	pkt := &meshtastic.MeshPacket{
		From:     p.From,
		To:       Broadcast,
		Id:       p.ID,
		HopLimit: hopLimit,
	}
	channel := p.Channel
	switch {
	case p.direct():
		plain, err := proto.Marshal(data)
		if err != nil {
			return nil, err
		}
		enc, err := SealDirect(plain, p.From, p.ID, p.ExtraNonce, p.PrivateKey, p.PeerPublicKey)
		if err != nil {
			return nil, err
		}
		pub, err := PublicKey(p.PrivateKey)
		if err != nil {
			return nil, err
		}
		pkt.To = p.To
		pkt.PkiEncrypted = true
		pkt.PublicKey = pub
		pkt.PayloadVariant = &meshtastic.MeshPacket_Encrypted{Encrypted: enc}
		channel = PKIChannel
	case len(p.Key) > 0:
		plain, err := proto.Marshal(data)
		if err != nil {
			return nil, err
		}
		enc, err := Crypt(plain, p.Key, p.ID, p.From)
		if err != nil {
			return nil, err
		}
		pkt.Channel = ChannelHash(p.Channel, p.Key)
		pkt.PayloadVariant = &meshtastic.MeshPacket_Encrypted{Encrypted: enc}
	default:
		pkt.Channel = ChannelHash(p.Channel, p.Key)
		pkt.PayloadVariant = &meshtastic.MeshPacket_Decoded{Decoded: data}
	}

	return proto.Marshal(&meshtastic.ServiceEnvelope{
		Packet:    pkt,
		ChannelId: channel,
		GatewayId: NodeIDString(p.From),
	})
}

// DecodeTelemetry unwraps a ServiceEnvelope holding environment telemetry.
// keys maps channel names to expanded PSKs.
func DecodeTelemetry(payload []byte, keys map[string][]byte) (*Telemetry, error) {
	var env meshtastic.ServiceEnvelope
	if err := proto.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	if env.Packet == nil {
		return nil, ErrNoPacket
	}

	var data *meshtastic.Data
	switch v := env.Packet.GetPayloadVariant().(type) {
	case *meshtastic.MeshPacket_Decoded:
		data = v.Decoded
	case *meshtastic.MeshPacket_Encrypted:
		var plain []byte
		var err error
		if env.ChannelId == PKIChannel || env.Packet.GetPkiEncrypted() {
			plain, err = openPKI(env.Packet, keys)
		} else {
			key, ok := keys[env.ChannelId]
			if !ok {
				return nil, ErrNoKey
			}
			plain, err = Crypt(v.Encrypted, key, env.Packet.Id, env.Packet.From)
		}
		if err != nil {
			return nil, err
		}
		data = &meshtastic.Data{}
		if err := proto.Unmarshal(plain, data); err != nil {
			log.Debugf("plaintext: [%x]", plain)
			return nil, ErrDecrypt
		}
	default:
		return nil, ErrUnknownPayload
	}

	if data.GetPortnum() != meshtastic.PortNum_TELEMETRY_APP {
		return nil, ErrNotTelemetry
	}
	var tel meshtastic.Telemetry
	if err := proto.Unmarshal(data.GetPayload(), &tel); err != nil {
		return nil, err
	}
	em := tel.GetEnvironmentMetrics()
	if em == nil {
		return nil, ErrNotTelemetry
	}

	out := &Telemetry{From: env.Packet.From, Channel: env.ChannelId, Values: map[string]float64{}}
	tr := tel.ProtoReflect()
	if fd := tr.Descriptor().Fields().ByName("time"); fd != nil && fd.Kind() == protoreflect.Fixed32Kind {
		if secs := tr.Get(fd).Uint(); secs > 0 {
			out.At = time.Unix(int64(secs), 0)
		}
	}
	emr := em.ProtoReflect()
	for q, name := range metricFields {
		fd := floatField(emr, name)
		if fd == nil || !emr.Has(fd) {
			continue
		}
		out.Values[q] = emr.Get(fd).Float()
	}
	return out, nil
}

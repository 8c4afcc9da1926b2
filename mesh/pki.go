package mesh

import (
	"crypto/aes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	psaesccm "github.com/pschlump/AesCCM"
	"github.com/rabarar/meshtastic"
	"golang.org/x/crypto/curve25519"
)

// PKIChannel is the channel id of direct messages.
const PKIChannel = "PKI"

const (
	pkiTagSize   = 8
	pkiNonceSize = 13
	pkiTrailer   = pkiTagSize + 4
)

var ErrPayloadShort = errors.New("payload too short")

// PublicKey derives the Curve25519 public key of a node private key.
func PublicKey(priv []byte) ([]byte, error) {
	return curve25519.X25519(priv, curve25519.Basepoint)
}

func pkiNonce(packetID, fromNode, extraNonce uint32) []byte {
	nonce := make([]byte, pkiNonceSize)
	binary.LittleEndian.PutUint32(nonce[0:4], packetID)
	binary.LittleEndian.PutUint32(nonce[4:8], extraNonce)
	binary.LittleEndian.PutUint32(nonce[8:12], fromNode)
	return nonce
}

func pkiBlockKey(myPriv, remotePub []byte) ([]byte, error) {
	secret, err := curve25519.X25519(myPriv, remotePub)
	if err != nil {
		return nil, fmt.Errorf("failed deriving shared secret: %w", err)
	}
	hashed := sha256.Sum256(secret)
	return hashed[:], nil
}

// SealDirect encrypts a direct message. The result is the ciphertext
// followed by the 8 byte tag and the 4 byte extra nonce.
func SealDirect(plain []byte, fromNode, packetID, extraNonce uint32, myPriv, remotePub []byte) ([]byte, error) {
	key, err := pkiBlockKey(myPriv, remotePub)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES block: %w", err)
	}
	ccm, err := psaesccm.NewCCM(block, pkiTagSize, pkiNonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create CCM context: %w", err)
	}
	out := ccm.Seal(nil, pkiNonce(packetID, fromNode, extraNonce), plain, nil)
	return binary.LittleEndian.AppendUint32(out, extraNonce), nil
}

// OpenDirect reverses SealDirect.
func OpenDirect(payload []byte, fromNode, packetID uint32, myPriv, remotePub []byte) ([]byte, error) {
	if len(payload) < pkiTrailer {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadShort, len(payload))
	}
	sealed := payload[:len(payload)-4]
	extraNonce := binary.LittleEndian.Uint32(payload[len(payload)-4:])

	key, err := pkiBlockKey(myPriv, remotePub)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES block: %w", err)
	}
	ccm, err := psaesccm.NewCCM(block, pkiTagSize, pkiNonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create CCM context: %w", err)
	}
	plain, err := ccm.Open(nil, pkiNonce(packetID, fromNode, extraNonce), sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}

// openPKI finds the receiver private key under its node id. The sender key
// comes from the packet, or is derived from a configured sender private key.
func openPKI(pkt *meshtastic.MeshPacket, keys map[string][]byte) ([]byte, error) {
	to := NodeIDString(pkt.GetTo())
	priv, ok := keys[to]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoKey, to)
	}
	remote := pkt.GetPublicKey()
	if len(remote) == 0 {
		from := NodeIDString(pkt.GetFrom())
		senderPriv, ok := keys[from]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoKey, from)
		}
		var err error
		if remote, err = PublicKey(senderPriv); err != nil {
			return nil, err
		}
	}
	return OpenDirect(pkt.GetEncrypted(), pkt.GetFrom(), pkt.GetId(), priv, remote)
}

// DecodeNodeKey decodes a base64 Curve25519 key.
func DecodeNodeKey(b64 string) ([]byte, error) {
	key, err := ExpandKey(b64)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: node keys are 32 bytes", ErrBadKey)
	}
	return key, nil
}

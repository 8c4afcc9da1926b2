// Package device describes the host the agent runs on: its identity,
// hardware summary and network attachment.
package device

import (
	"encoding/hex"
	"net"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Info is the fixed part of every telemetry message.
type Info struct {
	Type     string
	Function string
	Model    string
	ID       string
}

// PrimaryInterface picks the named interface, or the first up,
// non-loopback interface with a hardware address.
func PrimaryInterface(name string) (*net.Interface, error) {
	if name != "" {
		return net.InterfaceByName(name)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Index < ifaces[j].Index })
	for i := range ifaces {
		ifc := ifaces[i]
		if ifc.Flags&net.FlagLoopback != 0 || ifc.Flags&net.FlagUp == 0 || len(ifc.HardwareAddr) == 0 {
			continue
		}
		return &ifc, nil
	}
	return nil, ErrNoInterface
}

// IDFromMAC renders a hardware address as lowercase hex without
// separators.
func IDFromMAC(mac net.HardwareAddr) string {
	return strings.ToLower(hex.EncodeToString(mac))
}

// ResolveID returns override when set, else the MAC based ID of iface, else
// a random UUID.
func ResolveID(override, iface string) string {
	if override != "" {
		return override
	}
	if ifc, err := PrimaryInterface(iface); err == nil && len(ifc.HardwareAddr) > 0 {
		return IDFromMAC(ifc.HardwareAddr)
	}
	return uuid.NewString()
}

package device

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoInterface = errors.New("no usable network interface")
	ErrNoWireless  = errors.New("interface not listed in /proc/net/wireless")
)

// Network is what the telemetry message reports about connectivity.
type Network struct {
	Interface string
	SSID      string
	IP        string
	RSSI      int
}

// IPv4 returns the first IPv4 address of ifc.
func IPv4(ifc *net.Interface) (net.IP, error) {
	addrs, err := ifc.Addrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if n, ok := a.(*net.IPNet); ok {
			if ip4 := n.IP.To4(); ip4 != nil {
				return ip4, nil
			}
		}
	}
	return nil, ErrNoInterface
}

// ParseWireless extracts the signal level in dBm for iface from the
// contents of /proc/net/wireless.
func ParseWireless(r io.Reader, iface string) (int, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		name, rest, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) != iface {
			continue
		}
		fields := strings.Fields(rest)
		// status link level noise ...
		if len(fields) < 3 {
			break
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], "."), 64)
		if err != nil {
			return 0, err
		}
		return int(level), nil
	}
	return 0, ErrNoWireless
}

// RSSI reads the signal level of iface.
func RSSI(iface string) (int, error) {
	f, err := os.Open("/proc/net/wireless")
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ParseWireless(f, iface)
}

// SSID asks iwgetid for the associated network name.
func SSID(ctx context.Context, iface string) string {
	path, err := exec.LookPath("iwgetid")
	if err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	args := []string{"-r"}
	if iface != "" {
		args = append(args, iface)
	}
	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Lookup gathers network details for iface. Missing pieces are left empty.
func Lookup(ctx context.Context, iface string) Network {
	var n Network
	ifc, err := PrimaryInterface(iface)
	if err != nil {
		return n
	}
	n.Interface = ifc.Name
	if ip, err := IPv4(ifc); err == nil {
		n.IP = ip.String()
	}
	if rssi, err := RSSI(ifc.Name); err == nil {
		n.RSSI = rssi
		n.SSID = SSID(ctx, ifc.Name)
	}
	return n
}

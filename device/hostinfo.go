package device

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

// TimezoneString formats a UTC offset in seconds as "+02:00", rounding to
// whole hours.
func TimezoneString(offsetSeconds int) string {
	hours := int(math.Round(float64(offsetSeconds) / 3600))
	sign := '+'
	if hours < 0 {
		sign = '-'
		hours = -hours
	}
	return fmt.Sprintf("%c%02d:00", sign, hours)
}

// DSTStatus is "Yes" when t falls in daylight saving time in its location.
func DSTStatus(t time.Time) string {
	if t.IsDST() {
		return "Yes"
	}
	return "No"
}

// LogHostInfo prints the startup hardware summary.
func LogHostInfo(info Info, nw Network) {
	host, _ := os.Hostname()
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	now := time.Now()
	_, offset := now.Zone()

	log.Info("----- Hardware Info -----")
	log.Infof("Host:        %s", host)
	log.Infof("Platform:    %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Infof("CPUs:        %d", runtime.NumCPU())
	log.Infof("Go:          %s", runtime.Version())
	log.Infof("Heap:        %d KiB in use, %d KiB from OS", mem.HeapInuse/1024, mem.Sys/1024)
	log.Infof("Device:      %s %s (%s)", info.Type, info.Model, info.Function)
	log.Infof("Device ID:   %s", info.ID)
	log.Infof("Interface:   %s %s", nw.Interface, nw.IP)
	if nw.SSID != "" {
		log.Infof("SSID:        %s (%d dBm)", nw.SSID, nw.RSSI)
	}
	log.Infof("Timezone:    UTC%s DST: %s", TimezoneString(offset), DSTStatus(now))
	log.Info("-------------------------")
}

package device

import "github.com/prometheus/client_golang/prometheus"

var (
	probeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traind",
			Subsystem: "device",
			Name:      "probe_failures_total",
			Help:      "Total probe failures during discovery, by backend",
		},
		[]string{"backend"},
	)

	devicesDiscovered = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "traind",
			Subsystem: "device",
			Name:      "devices_discovered",
			Help:      "Devices found by the last discovery, by backend",
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(probeFailuresTotal, devicesDiscovered)
}

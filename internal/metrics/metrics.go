package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_active_connections",
		Help: "Active websocket connections",
	})
	FramesPushed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_frames_pushed_total",
		Help: "Frames pushed to live connections",
	}, []string{"type"})
	FramesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_frames_dropped_total",
		Help: "Frames dropped on slow or dead connections",
	})
)

func Init() {
	prometheus.MustRegister(ActiveConnections, FramesPushed, FramesDropped)
}

// Handler exposes the prometheus scrape endpoint on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

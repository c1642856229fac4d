// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_request_duration_seconds",
	Help:    "A histogram of procedure latencies",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
}, []string{"route", "method", "status"})

var Reactions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reactions_total",
	Help: "Reaction mutations by kind and action",
}, []string{"kind", "action"})

var Mints = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nft_mints_total",
	Help: "Mint attempts by result",
}, []string{"result"})

var CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streak_checkins_total",
	Help: "Streak check-ins by outcome",
}, []string{"outcome"})

// Middleware records the latency of every request by matched route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = apperr.KindOf(err).Status()
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			requestDuration.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

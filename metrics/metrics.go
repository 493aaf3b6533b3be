package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnnouncementsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classnexy", Name: "announcements_sent_total", Help: "Announcements successfully fanned out",
	})
	CodesRedeemed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classnexy", Name: "codes_redeemed_total", Help: "Successful invitation code redemptions",
	})
	CodesRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classnexy", Name: "codes_rejected_total", Help: "Redemption attempts rejected as invalid or expired",
	})
	ActivityDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "classnexy", Name: "activity_dropped_total", Help: "Activity log writes that failed and were dropped",
	})
)

func init() {
	prometheus.MustRegister(AnnouncementsSent, CodesRedeemed, CodesRejected, ActivityDropped)
}

func Handler() http.Handler { return promhttp.Handler() }

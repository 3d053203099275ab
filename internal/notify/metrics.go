package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carecircle_push_sent_total",
		Help: "Push notifications accepted by the provider.",
	})
	pushFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carecircle_push_failed_total",
		Help: "Push notifications rejected per token or lost to provider errors.",
	})
)

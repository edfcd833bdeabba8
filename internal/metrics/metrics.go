package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	PostsCreated    prometheus.Counter
	PostsDeleted    prometheus.Counter
	CommentsCreated prometheus.Counter
	Follows         prometheus.Counter
	Unfollows       prometheus.Counter
	CacheHits       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yatube_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_posts_created_total",
			Help: "Total number of posts created",
		}),
		PostsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_posts_deleted_total",
			Help: "Total number of posts deleted",
		}),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_comments_created_total",
			Help: "Total number of comments created",
		}),
		Follows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_follows_total",
			Help: "Total number of successful follow requests",
		}),
		Unfollows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yatube_unfollows_total",
			Help: "Total number of successful unfollow requests",
		}),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yatube_page_cache_lookups_total",
				Help: "Page cache lookups by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.PostsCreated,
		m.PostsDeleted,
		m.CommentsCreated,
		m.Follows,
		m.Unfollows,
		m.CacheHits,
	)

	return m
}

func (m *Metrics) ObserveRequest(route string, status int, took time.Duration) {
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if hit {
		m.CacheHits.WithLabelValues("hit").Inc()
		return
	}
	m.CacheHits.WithLabelValues("miss").Inc()
}

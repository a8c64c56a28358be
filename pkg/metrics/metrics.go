package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronofeed_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chronofeed_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// KVOperationDuration records store latency by operation (get, mget, zadd, ...).
	KVOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chronofeed_kv_operation_duration_seconds",
		Help:    "Key-value store operation latency in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	KVOperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronofeed_kv_operation_errors_total",
		Help: "Key-value store errors by operation",
	}, []string{"operation"})

	FeedAssemblyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chronofeed_feed_assembly_duration_seconds",
		Help:    "Time to assemble one feed page",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	FeedCandidatePosts = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chronofeed_feed_candidate_posts",
		Help:    "Number of post IDs scanned per feed assembly",
		Buckets: prometheus.ExponentialBuckets(1, 4, 7),
	}, []string{"kind"})

	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronofeed_posts_created_total",
		Help: "Posts created by type",
	}, []string{"type"})

	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronofeed_comments_created_total",
		Help: "Comments created",
	})

	FollowRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronofeed_follow_requests_total",
		Help: "Follow operations",
	})

	UnfollowRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronofeed_unfollow_requests_total",
		Help: "Unfollow operations",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronofeed_events_published_total",
		Help: "Domain events published by routing key and outcome",
	}, []string{"routing_key", "outcome"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronofeed_events_consumed_total",
		Help: "Domain events consumed by type and outcome (ack, requeue, reject)",
	}, []string{"type", "outcome"})

	NotificationsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronofeed_notifications_stored_total",
		Help: "Inbox notifications written by type",
	}, []string{"type"})
)

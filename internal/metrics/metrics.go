package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of product updates.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "The total number of product updates",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	// StoreWriteFailures counts background writes that the store rejected.
	StoreWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_write_failures_total",
		Help: "The total number of failed background store writes",
	}, []string{"operation"})

	// Refreshes counts full collection fetches by result.
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "list_refreshes_total",
		Help: "The total number of collection refetches",
	}, []string{"result"})

	// ChangeNotifications counts change signals by source.
	ChangeNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "change_notifications_total",
		Help: "The total number of change notifications received",
	}, []string{"source"})

	// EventsPublished counts outbox events by final status.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "The total number of outbox events handled",
	}, []string{"status"})
)

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_messages_sent_total",
			Help: "Total number of conversation messages persisted.",
		},
	)
	sendsBlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_sends_blocked_total",
			Help: "Total number of sends refused by policy.",
		},
		[]string{"reason"},
	)
	notificationsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_notifications_sent_total",
			Help: "Total number of notifications persisted.",
		},
	)
	notificationsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_notifications_dropped_total",
			Help: "Total number of notifications dropped because the provider is disabled.",
		},
		[]string{"component", "name"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		messagesSentTotal,
		sendsBlockedTotal,
		notificationsSentTotal,
		notificationsDroppedTotal,
		amqpPublishErrorsTotal,
	)
}

func IncMessageSent() {
	messagesSentTotal.Inc()
}

func IncSendBlocked(reason string) {
	sendsBlockedTotal.WithLabelValues(reason).Inc()
}

func IncNotificationSent() {
	notificationsSentTotal.Inc()
}

func IncNotificationDropped(component, name string) {
	notificationsDroppedTotal.WithLabelValues(component, name).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

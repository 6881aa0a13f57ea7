// Package metrics - счетчики Prometheus для чата, сделок и уведомлений.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics держит коллекторы и свой реестр. Методы безопасны для nil-получателя,
// поэтому сервисы в тестах можно собирать без метрик.
type Metrics struct {
	registry *prometheus.Registry

	chatMessages     *prometheus.CounterVec
	chatReplies      *prometheus.CounterVec
	chatFallbacks    prometheus.Counter
	dealsCreated     prometheus.Counter
	dealTransitions  *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	rateLimitRejects prometheus.Counter
}

// New регистрирует все коллекторы в новом реестре вместе со стандартными go/process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		chatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_chat_messages_total",
			Help: "Chat messages stored, by role.",
		}, []string{"role"}),
		chatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_chat_replies_total",
			Help: "Assistant replies, by matched rule.",
		}, []string{"rule"}),
		chatFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_chat_fallbacks_total",
			Help: "Exchanges answered with the fallback apology because storage failed.",
		}),
		dealsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_deals_created_total",
			Help: "Deals created from conversations.",
		}),
		dealTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_deal_transitions_total",
			Help: "Deal status changes, by target status.",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_notifications_total",
			Help: "Notification attempts, by kind and result.",
		}, []string{"kind", "result"}),
		rateLimitRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_chat_rate_limited_total",
			Help: "Chat messages rejected by the per-session rate limit.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.chatMessages, m.chatReplies, m.chatFallbacks, m.dealsCreated,
		m.dealTransitions, m.notifications, m.rateLimitRejects,
	)
	return m
}

// Handler отдает /metrics для реестра m.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry нужен тестам для чтения значений.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ChatMessage(role string) {
	if m != nil {
		m.chatMessages.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) ChatReply(rule string) {
	if m != nil {
		m.chatReplies.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) ChatFallback() {
	if m != nil {
		m.chatFallbacks.Inc()
	}
}

func (m *Metrics) DealCreated() {
	if m != nil {
		m.dealsCreated.Inc()
	}
}

func (m *Metrics) DealTransition(status string) {
	if m != nil {
		m.dealTransitions.WithLabelValues(status).Inc()
	}
}

// Notification учитывает попытку отправки; result - "ok" или "error".
func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RateLimited() {
	if m != nil {
		m.rateLimitRejects.Inc()
	}
}

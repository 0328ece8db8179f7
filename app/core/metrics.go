package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/studyhall-ai/studyhall/pkg/metrics"
)

type Metrics struct {
	apiResponseTime  *prometheus.HistogramVec
	apiErrorCounter  *prometheus.CounterVec
	llmRequestTime   *prometheus.HistogramVec
	llmErrorCounter  *prometheus.CounterVec
	embeddingTime    *prometheus.HistogramVec
	ingestTime       *prometheus.HistogramVec
	retrieveTime     *prometheus.HistogramVec
	genContextTime   *prometheus.HistogramVec
	sessionsExpired  *prometheus.CounterVec
	quizRetryCounter *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:  metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:  metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		llmRequestTime:   metrics.NewHistogramVec("llm_request_time", []string{"target"}),
		llmErrorCounter:  metrics.NewCounterVec("llm_error", []string{"type"}),
		embeddingTime:    metrics.NewHistogramVec("embedding_request_time", []string{"usage"}),
		ingestTime:       metrics.NewHistogramVec("document_ingest_time", nil),
		retrieveTime:     metrics.NewHistogramVec("retrieve_time", nil),
		genContextTime:   metrics.NewHistogramVec("generate_context_time", []string{"type"}),
		sessionsExpired:  metrics.NewCounterVec("sessions_expired", nil),
		quizRetryCounter: metrics.NewCounterVec("quiz_generation_retry", nil),
	}

	return m
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) LLMRequestTimer(target string) *prometheus.Timer {
	return prometheus.NewTimer(m.llmRequestTime.WithLabelValues(target))
}

func (m *Metrics) LLMErrorInc(types string) {
	m.llmErrorCounter.WithLabelValues(types).Inc()
}

func (m *Metrics) EmbeddingTimer(usage string) *prometheus.Timer {
	return prometheus.NewTimer(m.embeddingTime.WithLabelValues(usage))
}

func (m *Metrics) IngestTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.ingestTime.WithLabelValues())
}

func (m *Metrics) RetrieveTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.retrieveTime.WithLabelValues())
}

func (m *Metrics) GenContextTimer(types string) *prometheus.Timer {
	return prometheus.NewTimer(m.genContextTime.WithLabelValues(types))
}

func (m *Metrics) SessionsExpiredAdd(n float64) {
	m.sessionsExpired.WithLabelValues().Add(n)
}

func (m *Metrics) QuizRetryInc() {
	m.quizRetryCounter.WithLabelValues().Inc()
}

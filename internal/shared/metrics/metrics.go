package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	saveStartedTotal   atomic.Uint64
	saveCompletedTotal atomic.Uint64
	saveFailedTotal    atomic.Uint64

	webhookAppliedTotal  atomic.Uint64
	webhookRejectedTotal atomic.Uint64

	realtimeDeliveredTotal atomic.Uint64

	saveDuration = newHistogram([]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000})
)

// IncSaveStarted increments the started counter.
func IncSaveStarted() {
	saveStartedTotal.Add(1)
}

// IncSaveCompleted increments the completed counter.
func IncSaveCompleted() {
	saveCompletedTotal.Add(1)
}

// IncSaveFailed increments the failed counter.
func IncSaveFailed() {
	saveFailedTotal.Add(1)
}

// IncWebhookApplied increments the applied-webhook counter.
func IncWebhookApplied() {
	webhookAppliedTotal.Add(1)
}

// IncWebhookRejected increments the rejected-webhook counter.
func IncWebhookRejected() {
	webhookRejectedTotal.Add(1)
}

// IncRealtimeDelivered increments the delivered-push counter.
func IncRealtimeDelivered() {
	realtimeDeliveredTotal.Add(1)
}

// ObserveSaveDurationMs records a save duration in milliseconds.
func ObserveSaveDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	saveDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "resume_save_started_total", "Total resume saves started", saveStartedTotal.Load())
	writeCounter(&buf, "resume_save_completed_total", "Total resume saves completed", saveCompletedTotal.Load())
	writeCounter(&buf, "resume_save_failed_total", "Total resume saves failed", saveFailedTotal.Load())
	writeCounter(&buf, "billing_webhook_applied_total", "Total billing webhooks applied", webhookAppliedTotal.Load())
	writeCounter(&buf, "billing_webhook_rejected_total", "Total billing webhooks rejected", webhookRejectedTotal.Load())
	writeCounter(&buf, "realtime_delivered_total", "Total realtime pushes delivered", realtimeDeliveredTotal.Load())
	writeHistogram(&buf, "resume_save_duration_ms", "Resume save duration in milliseconds", saveDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

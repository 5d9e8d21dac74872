package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	taskStartedTotal      atomic.Uint64
	taskCompletedTotal    atomic.Uint64
	taskFailedTotal       atomic.Uint64
	questionAskedTotal    atomic.Uint64
	questionAnsweredTotal atomic.Uint64
	auditRunTotal         atomic.Uint64

	jobsReceivedTotal             atomic.Uint64
	jobsDeletedUnrecoverableTotal atomic.Uint64

	taskDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncTaskStarted increments the started counter.
func IncTaskStarted() {
	taskStartedTotal.Add(1)
}

// IncTaskCompleted increments the completed counter.
func IncTaskCompleted() {
	taskCompletedTotal.Add(1)
}

// IncTaskFailed increments the failed counter.
func IncTaskFailed() {
	taskFailedTotal.Add(1)
}

// IncQuestionAsked increments the questions counter.
func IncQuestionAsked() {
	questionAskedTotal.Add(1)
}

// IncQuestionAnswered increments the answered-questions counter.
func IncQuestionAnswered() {
	questionAnsweredTotal.Add(1)
}

// IncAuditRun increments the audit-run counter.
func IncAuditRun() {
	auditRunTotal.Add(1)
}

// IncJobReceived increments the queue-messages-received counter.
func IncJobReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobDeletedUnrecoverable counts messages deleted without processing
// because they could never succeed.
func IncJobDeletedUnrecoverable() {
	jobsDeletedUnrecoverableTotal.Add(1)
}

// ObserveTaskDurationMs records a task duration in milliseconds.
func ObserveTaskDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	taskDuration.Observe(value)
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
	writeCounter(&buf, "task_started_total", "Total pipeline tasks started", taskStartedTotal.Load())
	writeCounter(&buf, "task_completed_total", "Total pipeline tasks completed", taskCompletedTotal.Load())
	writeCounter(&buf, "task_failed_total", "Total pipeline tasks failed", taskFailedTotal.Load())
	writeCounter(&buf, "question_asked_total", "Total questions asked", questionAskedTotal.Load())
	writeCounter(&buf, "question_answered_total", "Total questions answered", questionAnsweredTotal.Load())
	writeCounter(&buf, "audit_run_total", "Total audit runs", auditRunTotal.Load())
	writeCounter(&buf, "jobs_received_total", "Total queue messages received", jobsReceivedTotal.Load())
	writeCounter(&buf, "jobs_deleted_unrecoverable_total", "Total queue messages deleted as unrecoverable", jobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "task_duration_ms", "Task duration in milliseconds", taskDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)+1),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += value
	h.count++
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
	h.counts[len(h.buckets)]++
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts := make([]uint64, len(h.counts))
	copy(counts, h.counts)
	return histogramSnapshot{
		buckets: h.buckets,
		counts:  counts,
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	cumulative := uint64(0)
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", name, formatBound(bound), cumulative)
	}
	cumulative += snap.counts[len(snap.buckets)]
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, cumulative)
	fmt.Fprintf(buf, "%s_sum %s\n", name, strconv.FormatFloat(snap.sum, 'f', -1, 64))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatBound(bound float64) string {
	return strconv.FormatFloat(bound, 'f', -1, 64)
}

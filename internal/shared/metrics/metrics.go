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
	routineAnalysesTotal  atomic.Uint64
	routineFailuresTotal  atomic.Uint64
	labelExtractionsTotal atomic.Uint64
	labelFailuresTotal    atomic.Uint64
	reportsSavedTotal     atomic.Uint64

	modelCallDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncRoutineAnalysis increments the routine analysis counter.
func IncRoutineAnalysis() {
	routineAnalysesTotal.Add(1)
}

// IncRoutineFailure increments the routine failure counter.
func IncRoutineFailure() {
	routineFailuresTotal.Add(1)
}

// IncLabelExtraction increments the label extraction counter.
func IncLabelExtraction() {
	labelExtractionsTotal.Add(1)
}

// IncLabelFailure increments the label extraction failure counter.
func IncLabelFailure() {
	labelFailuresTotal.Add(1)
}

// IncReportSaved increments the saved report counter.
func IncReportSaved() {
	reportsSavedTotal.Add(1)
}

// ObserveModelCallMs records one upstream model call duration in milliseconds.
func ObserveModelCallMs(value float64) {
	if value < 0 {
		value = 0
	}
	modelCallDuration.Observe(value)
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
	writeCounter(&buf, "routine_analyses_total", "Total routine compatibility analyses requested", routineAnalysesTotal.Load())
	writeCounter(&buf, "routine_failures_total", "Total routine compatibility analyses that failed", routineFailuresTotal.Load())
	writeCounter(&buf, "label_extractions_total", "Total label photo extractions requested", labelExtractionsTotal.Load())
	writeCounter(&buf, "label_failures_total", "Total label photo extractions that failed", labelFailuresTotal.Load())
	writeCounter(&buf, "reports_saved_total", "Total reports persisted to history", reportsSavedTotal.Load())
	writeHistogram(&buf, "model_call_duration_ms", "Upstream model call duration in milliseconds", modelCallDuration.Snapshot())
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

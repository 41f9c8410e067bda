package resilience

import (
	"sync"
	"time"
)

// minBucketSpan bounds how fine the window is sliced for short windows.
const minBucketSpan = 100 * time.Millisecond

// bucketsPerWindow is the number of slices the monitoring window is divided into.
const bucketsPerWindow = 10

// bucket holds outcome counts for one slice of the monitoring window.
type bucket struct {
	start     time.Time
	successes int
	failures  int
	timeouts  int
}

// Window tracks operation outcomes over a rolling time span using
// fixed-width time buckets. Buckets older than the span are evicted
// lazily on read and write. Safe for concurrent use.
type Window struct {
	mu         sync.Mutex
	span       time.Duration
	bucketSpan time.Duration
	buckets    []bucket

	// now is a clock function, overridable for testing.
	now func() time.Time
}

// Snapshot is an aggregate view of the outcomes currently in the window.
type Snapshot struct {
	Successes   int
	Failures    int
	Timeouts    int
	Volume      int
	FailureRate float64
}

// NewWindow creates a window covering the given monitoring span.
func NewWindow(span time.Duration) *Window {
	if span <= 0 {
		span = 60 * time.Second
	}
	bucketSpan := span / bucketsPerWindow
	if bucketSpan < minBucketSpan {
		bucketSpan = minBucketSpan
	}
	return &Window{
		span:       span,
		bucketSpan: bucketSpan,
		now:        time.Now,
	}
}

// Record adds one outcome to the bucket covering the current time.
func (w *Window) Record(o Outcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)

	b := w.current(now)
	switch o {
	case OutcomeSuccess:
		b.successes++
	case OutcomeTimeout:
		b.timeouts++
	default:
		b.failures++
	}
}

// Snapshot evicts expired buckets and aggregates the remainder.
// Timeouts count as failures for the failure rate. An empty window
// reports a rate of 0 with Volume 0 so callers can detect
// insufficient volume.
func (w *Window) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(w.now())

	var s Snapshot
	for i := range w.buckets {
		s.Successes += w.buckets[i].successes
		s.Failures += w.buckets[i].failures
		s.Timeouts += w.buckets[i].timeouts
	}
	s.Volume = s.Successes + s.Failures + s.Timeouts
	if s.Volume > 0 {
		s.FailureRate = float64(s.Failures+s.Timeouts) / float64(s.Volume)
	}
	return s
}

// Reset discards all recorded outcomes.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buckets = w.buckets[:0]
}

// current returns the bucket covering now, creating it if the latest
// bucket's span has elapsed.
func (w *Window) current(now time.Time) *bucket {
	start := now.Truncate(w.bucketSpan)
	if n := len(w.buckets); n > 0 && w.buckets[n-1].start.Equal(start) {
		return &w.buckets[n-1]
	}
	w.buckets = append(w.buckets, bucket{start: start})
	return &w.buckets[len(w.buckets)-1]
}

// evict drops buckets whose start falls outside the monitoring span.
func (w *Window) evict(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.buckets) && w.buckets[i].start.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.buckets = append(w.buckets[:0], w.buckets[i:]...)
	}
}

package testutil

import (
	"sync"
	"time"
)

// RecordedMetric is one call captured by RecordingSink.
type RecordedMetric struct {
	Name     string
	Value    float64
	Duration time.Duration
	Tags     map[string]string
}

// RecordingSink is a statsd.Sink that keeps every metric in memory.
type RecordingSink struct {
	mu      sync.Mutex
	counts  []RecordedMetric
	gauges  []RecordedMetric
	timings []RecordedMetric
}

func (s *RecordingSink) Count(name string, value int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, RecordedMetric{Name: name, Value: float64(value), Tags: copyTags(tags)})
}

func (s *RecordingSink) Gauge(name string, value float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges = append(s.gauges, RecordedMetric{Name: name, Value: value, Tags: copyTags(tags)})
}

func (s *RecordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timings = append(s.timings, RecordedMetric{Name: name, Duration: value, Tags: copyTags(tags)})
}

// Counts returns a snapshot of recorded counters.
func (s *RecordingSink) Counts() []RecordedMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedMetric(nil), s.counts...)
}

// Gauges returns a snapshot of recorded gauges.
func (s *RecordingSink) Gauges() []RecordedMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedMetric(nil), s.gauges...)
}

// Timings returns a snapshot of recorded timings.
func (s *RecordingSink) Timings() []RecordedMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedMetric(nil), s.timings...)
}

// CountNamed returns the number of counters recorded under name.
func (s *RecordingSink) CountNamed(name string) int {
	n := 0
	for _, m := range s.Counts() {
		if m.Name == name {
			n++
		}
	}
	return n
}

func copyTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

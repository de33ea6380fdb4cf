package stats

import (
	"sort"

	"github.com/studiowebux/stampede/internal/types"
)

// TaskStats aggregates results for one profile/task pair.
type TaskStats struct {
	Profile         string
	Task            string
	SuccessCount    int
	FailureCount    int
	TotalDurationMs int64
}

// Completed returns the total number of results recorded for the task.
func (t *TaskStats) Completed() int {
	return t.SuccessCount + t.FailureCount
}

// AvgDurationMs returns the task's average duration in milliseconds.
func (t *TaskStats) AvgDurationMs() float64 {
	if t.Completed() == 0 {
		return 0
	}
	return float64(t.TotalDurationMs) / float64(t.Completed())
}

// Stats holds runtime statistics for a load test run
type Stats struct {
	CompletedRequests int
	SuccessCount      int
	FailureCount      int // disallowed statuses plus network errors/timeouts
	AuthFailures      int // failed session bootstraps (always surfaced)
	ActiveUsers       int // currently running simulated users
	Durations         []int64
	TotalDurationMs   int64
	MinDurationMs     int64
	MaxDurationMs     int64
	ByTask            map[string]*TaskStats // keyed by profile/task
}

// New creates a new Stats instance
func New() *Stats {
	return &Stats{
		Durations:     make([]int64, 0, 1000),
		MinDurationMs: -1,
		MaxDurationMs: -1,
		ByTask:        make(map[string]*TaskStats),
	}
}

// Add records one request result.
func (s *Stats) Add(r *types.RequestResult) {
	s.CompletedRequests++
	s.TotalDurationMs += r.DurationMs
	s.Durations = append(s.Durations, r.DurationMs)

	if r.Failed {
		s.FailureCount++
	} else {
		s.SuccessCount++
	}
	if r.AuthFailure {
		s.AuthFailures++
	}

	key := r.Profile + "/" + r.Task
	ts, ok := s.ByTask[key]
	if !ok {
		ts = &TaskStats{Profile: r.Profile, Task: r.Task}
		s.ByTask[key] = ts
	}
	if r.Failed {
		ts.FailureCount++
	} else {
		ts.SuccessCount++
	}
	ts.TotalDurationMs += r.DurationMs

	// Update min/max
	if s.MinDurationMs == -1 || r.DurationMs < s.MinDurationMs {
		s.MinDurationMs = r.DurationMs
	}
	if s.MaxDurationMs == -1 || r.DurationMs > s.MaxDurationMs {
		s.MaxDurationMs = r.DurationMs
	}
}

// Clone returns a deep copy safe to read while the original keeps updating.
func (s *Stats) Clone() *Stats {
	out := &Stats{
		CompletedRequests: s.CompletedRequests,
		SuccessCount:      s.SuccessCount,
		FailureCount:      s.FailureCount,
		AuthFailures:      s.AuthFailures,
		ActiveUsers:       s.ActiveUsers,
		TotalDurationMs:   s.TotalDurationMs,
		MinDurationMs:     s.MinDurationMs,
		MaxDurationMs:     s.MaxDurationMs,
		Durations:         make([]int64, len(s.Durations)),
		ByTask:            make(map[string]*TaskStats, len(s.ByTask)),
	}
	copy(out.Durations, s.Durations)
	for k, v := range s.ByTask {
		clone := *v
		out.ByTask[k] = &clone
	}
	return out
}

// Tasks returns the per-task stats sorted by profile then task name.
func (s *Stats) Tasks() []*TaskStats {
	out := make([]*TaskStats, 0, len(s.ByTask))
	for _, ts := range s.ByTask {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Profile != out[j].Profile {
			return out[i].Profile < out[j].Profile
		}
		return out[i].Task < out[j].Task
	})
	return out
}

// AvgDurationMs returns the average duration in milliseconds
func (s *Stats) AvgDurationMs() float64 {
	if s.CompletedRequests == 0 {
		return 0
	}
	return float64(s.TotalDurationMs) / float64(s.CompletedRequests)
}

// Min returns the minimum duration, or 0 if no results
func (s *Stats) Min() int64 {
	if s.MinDurationMs == -1 {
		return 0
	}
	return s.MinDurationMs
}

// Max returns the maximum duration, or 0 if no results
func (s *Stats) Max() int64 {
	if s.MaxDurationMs == -1 {
		return 0
	}
	return s.MaxDurationMs
}

// Percentile calculates the percentile value (p should be between 0 and 100)
func (s *Stats) Percentile(p float64) int64 {
	if len(s.Durations) == 0 {
		return 0
	}

	// Make a copy and sort
	sorted := make([]int64, len(s.Durations))
	copy(sorted, s.Durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	// Calculate index
	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation between lower and upper
	weight := index - float64(lower)
	return int64(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

// P50 returns the 50th percentile (median)
func (s *Stats) P50() int64 {
	return s.Percentile(50)
}

// P95 returns the 95th percentile
func (s *Stats) P95() int64 {
	return s.Percentile(95)
}

// P99 returns the 99th percentile
func (s *Stats) P99() int64 {
	return s.Percentile(99)
}

// SuccessRate returns the success rate as a percentage
func (s *Stats) SuccessRate() float64 {
	if s.CompletedRequests == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.CompletedRequests) * 100
}

// FailureRate returns the failure rate as a percentage
func (s *Stats) FailureRate() float64 {
	if s.CompletedRequests == 0 {
		return 0
	}
	return float64(s.FailureCount) / float64(s.CompletedRequests) * 100
}

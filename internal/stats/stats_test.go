package stats

import (
	"testing"

	"github.com/studiowebux/stampede/internal/types"
)

func result(profile, task string, durationMs int64, failed bool) *types.RequestResult {
	return &types.RequestResult{
		Profile:    profile,
		Task:       task,
		DurationMs: durationMs,
		Failed:     failed,
	}
}

func TestStats_Counts(t *testing.T) {
	s := New()
	s.Add(result("viewer", "browse_content", 10, false))
	s.Add(result("viewer", "browse_content", 20, true))
	s.Add(result("viewer", "view_content", 30, false))
	s.Add(&types.RequestResult{Profile: "viewer", Task: "login", DurationMs: 5, Failed: true, AuthFailure: true})

	if s.CompletedRequests != 4 {
		t.Errorf("Expected 4 completed, got %d", s.CompletedRequests)
	}
	if s.SuccessCount != 2 {
		t.Errorf("Expected 2 successes, got %d", s.SuccessCount)
	}
	if s.FailureCount != 2 {
		t.Errorf("Expected 2 failures, got %d", s.FailureCount)
	}
	if s.AuthFailures != 1 {
		t.Errorf("Expected 1 auth failure, got %d", s.AuthFailures)
	}

	browse := s.ByTask["viewer/browse_content"]
	if browse == nil {
		t.Fatal("Expected per-task stats for viewer/browse_content")
	}
	if browse.SuccessCount != 1 || browse.FailureCount != 1 {
		t.Errorf("Expected 1 ok / 1 fail for browse_content, got %d/%d", browse.SuccessCount, browse.FailureCount)
	}
	if browse.AvgDurationMs() != 15 {
		t.Errorf("Expected avg 15ms for browse_content, got %.1f", browse.AvgDurationMs())
	}
}

func TestStats_MinMaxAvg(t *testing.T) {
	s := New()
	if s.Min() != 0 || s.Max() != 0 {
		t.Error("Expected zero min/max with no results")
	}

	for _, d := range []int64{50, 10, 30} {
		s.Add(result("viewer", "view_content", d, false))
	}

	if s.Min() != 10 {
		t.Errorf("Expected min 10, got %d", s.Min())
	}
	if s.Max() != 50 {
		t.Errorf("Expected max 50, got %d", s.Max())
	}
	if s.AvgDurationMs() != 30 {
		t.Errorf("Expected avg 30, got %.1f", s.AvgDurationMs())
	}
}

func TestStats_Percentiles(t *testing.T) {
	s := New()
	for i := int64(1); i <= 100; i++ {
		s.Add(result("viewer", "view_content", i, false))
	}

	if p50 := s.P50(); p50 < 49 || p50 > 52 {
		t.Errorf("Expected P50 near 50, got %d", p50)
	}
	if p95 := s.P95(); p95 < 94 || p95 > 97 {
		t.Errorf("Expected P95 near 95, got %d", p95)
	}
	if p99 := s.P99(); p99 < 98 || p99 > 100 {
		t.Errorf("Expected P99 near 99, got %d", p99)
	}
}

func TestStats_Rates(t *testing.T) {
	s := New()
	if s.SuccessRate() != 0 || s.FailureRate() != 0 {
		t.Error("Expected zero rates with no results")
	}

	s.Add(result("viewer", "a", 1, false))
	s.Add(result("viewer", "a", 1, false))
	s.Add(result("viewer", "a", 1, true))
	s.Add(result("viewer", "a", 1, true))

	if s.SuccessRate() != 50 {
		t.Errorf("Expected 50%% success rate, got %.1f", s.SuccessRate())
	}
	if s.FailureRate() != 50 {
		t.Errorf("Expected 50%% failure rate, got %.1f", s.FailureRate())
	}
}

func TestStats_CloneIsIndependent(t *testing.T) {
	s := New()
	s.Add(result("viewer", "a", 10, false))

	clone := s.Clone()
	s.Add(result("viewer", "a", 20, true))

	if clone.CompletedRequests != 1 {
		t.Errorf("Clone should keep its snapshot, got %d completed", clone.CompletedRequests)
	}
	if clone.ByTask["viewer/a"].SuccessCount != 1 || clone.ByTask["viewer/a"].FailureCount != 0 {
		t.Error("Clone per-task stats should be independent of later updates")
	}
}

func TestStats_TasksSorted(t *testing.T) {
	s := New()
	s.Add(result("viewer", "b", 1, false))
	s.Add(result("creator", "z", 1, false))
	s.Add(result("viewer", "a", 1, false))

	tasks := s.Tasks()
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 task entries, got %d", len(tasks))
	}
	if tasks[0].Profile != "creator" || tasks[1].Task != "a" || tasks[2].Task != "b" {
		t.Errorf("Unexpected order: %+v", tasks)
	}
}

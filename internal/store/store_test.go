package store

import (
	"testing"
	"time"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetRun(t *testing.T) {
	s := createTestStore(t)

	run := &Run{
		Scenario:   "default",
		Host:       "http://localhost:3000",
		Seed:       42,
		TotalUsers: 10,
		StartedAt:  time.Now(),
		Status:     "running",
	}
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("Expected run ID to be assigned")
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if got.Scenario != "default" || got.Host != "http://localhost:3000" {
		t.Errorf("Unexpected run: %+v", got)
	}
	if got.Seed != 42 || got.TotalUsers != 10 {
		t.Errorf("Unexpected seed/users: %d/%d", got.Seed, got.TotalUsers)
	}
	if !got.IsRunning() {
		t.Error("Expected run to be running")
	}
	if got.CompletedAt != nil {
		t.Error("Expected no completion time yet")
	}
}

func TestUpdateRun(t *testing.T) {
	s := createTestStore(t)

	run := &Run{Scenario: "default", Host: "h", StartedAt: time.Now(), Status: "running"}
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	now := time.Now()
	run.CompletedAt = &now
	run.Status = "completed"
	run.TotalRequests = 100
	run.TotalSuccess = 95
	run.TotalFailures = 5
	run.AuthFailures = 2
	run.AvgDurationMs = 12.5
	run.MinDurationMs = 3
	run.MaxDurationMs = 80
	run.P50DurationMs = 10
	run.P95DurationMs = 40
	run.P99DurationMs = 75
	if err := s.UpdateRun(run); err != nil {
		t.Fatalf("Failed to update run: %v", err)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if !got.IsCompleted() {
		t.Error("Expected run to be completed")
	}
	if got.TotalRequests != 100 || got.TotalSuccess != 95 || got.TotalFailures != 5 {
		t.Errorf("Unexpected totals: %d/%d/%d", got.TotalRequests, got.TotalSuccess, got.TotalFailures)
	}
	if got.AuthFailures != 2 {
		t.Errorf("Expected 2 auth failures, got %d", got.AuthFailures)
	}
	if got.P95DurationMs != 40 {
		t.Errorf("Expected P95 40, got %d", got.P95DurationMs)
	}
	if got.CompletedAt == nil {
		t.Error("Expected completion time to be set")
	}
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)

	base := time.Now()
	for i := 0; i < 3; i++ {
		run := &Run{
			Scenario:  "default",
			Host:      "h",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Status:    "completed",
		}
		if err := s.CreateRun(run); err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Error("Expected newest run first")
	}
}

func TestSaveMetricsBatchAndBreakdown(t *testing.T) {
	s := createTestStore(t)

	run := &Run{Scenario: "default", Host: "h", StartedAt: time.Now(), Status: "running"}
	if err := s.CreateRun(run); err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}

	now := time.Now()
	metrics := []*Metric{
		{RunID: run.ID, Timestamp: now, ElapsedMs: 10, Profile: "viewer", Task: "browse_content", Endpoint: "GET /api/content", StatusCode: 200, DurationMs: 10},
		{RunID: run.ID, Timestamp: now, ElapsedMs: 20, Profile: "viewer", Task: "browse_content", Endpoint: "GET /api/content", StatusCode: 500, DurationMs: 30, FailureMessage: "GET /api/content failed: 500"},
		{RunID: run.ID, Timestamp: now, ElapsedMs: 30, Profile: "creator", Task: "publish_content", Endpoint: "POST /api/content", StatusCode: 201, DurationMs: 50},
	}
	if err := s.SaveMetricsBatch(metrics); err != nil {
		t.Fatalf("Failed to save metrics: %v", err)
	}

	breakdown, err := s.GetTaskBreakdown(run.ID)
	if err != nil {
		t.Fatalf("Failed to get breakdown: %v", err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("Expected 2 breakdown rows, got %d", len(breakdown))
	}
	if breakdown[0].Profile != "creator" || breakdown[0].Requests != 1 || breakdown[0].Failures != 0 {
		t.Errorf("Unexpected creator row: %+v", breakdown[0])
	}
	if breakdown[1].Profile != "viewer" || breakdown[1].Requests != 2 || breakdown[1].Failures != 1 {
		t.Errorf("Unexpected viewer row: %+v", breakdown[1])
	}
	if breakdown[1].AvgDurationMs != 20 {
		t.Errorf("Expected viewer avg 20ms, got %.1f", breakdown[1].AvgDurationMs)
	}
}

func TestSaveMetricsBatchEmpty(t *testing.T) {
	s := createTestStore(t)
	if err := s.SaveMetricsBatch(nil); err != nil {
		t.Errorf("Empty batch should be a no-op, got %v", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenarioFile(t, `
name: mixed
host: http://localhost:8080
seed: 42
spawn_rate: 5
duration_sec: 120
request_timeout_sec: 30
profiles:
  viewer:
    users: 10
    wait_min_ms: 500
    wait_max_ms: 2000
    weights:
      browse_content: 8
  creator:
    users: 2
`)

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	if s.Name != "mixed" || s.Host != "http://localhost:8080" {
		t.Errorf("Unexpected scenario: %+v", s)
	}
	if s.Seed != 42 || s.SpawnRate != 5 {
		t.Errorf("Unexpected seed/spawn rate: %d/%.1f", s.Seed, s.SpawnRate)
	}
	if s.GetDuration() != 2*time.Minute {
		t.Errorf("Expected 2m duration, got %v", s.GetDuration())
	}
	if s.GetRequestTimeout() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", s.GetRequestTimeout())
	}
	if s.TotalUsers() != 12 {
		t.Errorf("Expected 12 total users, got %d", s.TotalUsers())
	}

	viewer := s.Profiles["viewer"]
	if viewer.WaitMinMs != 500 || viewer.WaitMaxMs != 2000 {
		t.Errorf("Unexpected viewer waits: %d/%d", viewer.WaitMinMs, viewer.WaitMaxMs)
	}
	if viewer.Weights["browse_content"] != 8 {
		t.Errorf("Unexpected viewer weights: %v", viewer.Weights)
	}
}

func TestLoadScenarioKeepsDefaults(t *testing.T) {
	path := writeScenarioFile(t, `
profiles:
  viewer:
    users: 1
`)

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	if s.Host != "http://localhost:3000" {
		t.Errorf("Expected default host, got %q", s.Host)
	}
	if s.TokenPath != "token" || s.IDPath != "id" {
		t.Errorf("Expected default extraction paths, got %q/%q", s.TokenPath, s.IDPath)
	}
	if s.GetDuration() != 0 {
		t.Errorf("Expected unlimited duration, got %v", s.GetDuration())
	}
	if s.GetRequestTimeout() != 10*time.Second {
		t.Errorf("Expected 10s default timeout, got %v", s.GetRequestTimeout())
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(s *Scenario) {},
		},
		{
			name:    "missing host",
			mutate:  func(s *Scenario) { s.Host = "" },
			wantErr: "host is required",
		},
		{
			name:    "zero spawn rate",
			mutate:  func(s *Scenario) { s.SpawnRate = 0 },
			wantErr: "spawn rate",
		},
		{
			name:    "negative duration",
			mutate:  func(s *Scenario) { s.DurationSec = -1 },
			wantErr: "duration",
		},
		{
			name:    "negative iterations",
			mutate:  func(s *Scenario) { s.Iterations = -1 },
			wantErr: "iterations",
		},
		{
			name:    "no users",
			mutate:  func(s *Scenario) { s.Profiles = map[string]ProfileOptions{} },
			wantErr: "at least one profile",
		},
		{
			name: "negative users",
			mutate: func(s *Scenario) {
				s.Profiles["creator"] = ProfileOptions{Users: -1}
			},
			wantErr: "cannot be negative",
		},
		{
			name: "too many users in one profile",
			mutate: func(s *Scenario) {
				s.Profiles["viewer"] = ProfileOptions{Users: 10001}
			},
			wantErr: "cannot exceed 10,000",
		},
		{
			name: "too many users total",
			mutate: func(s *Scenario) {
				s.Profiles["viewer"] = ProfileOptions{Users: 6000}
				s.Profiles["creator"] = ProfileOptions{Users: 6000}
			},
			wantErr: "total users",
		},
		{
			name: "inverted wait bounds",
			mutate: func(s *Scenario) {
				s.Profiles["viewer"] = ProfileOptions{Users: 1, WaitMinMs: 500, WaitMaxMs: 100}
			},
			wantErr: "wait_min_ms",
		},
		{
			name: "zero weight",
			mutate: func(s *Scenario) {
				s.Profiles["viewer"] = ProfileOptions{Users: 1, Weights: map[string]int{"browse_content": 0}}
			},
			wantErr: "weight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			s.Profiles["viewer"] = ProfileOptions{Users: 1}
			tt.mutate(s)

			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

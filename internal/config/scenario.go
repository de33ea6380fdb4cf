package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/stampede/internal/types"
)

// Scenario describes a load test run: the target host plus how many
// simulated users of each actor profile to spawn and how fast.
type Scenario struct {
	Name              string                    `yaml:"name,omitempty"`
	Host              string                    `yaml:"host"`
	Seed              int64                     `yaml:"seed,omitempty"`       // 0 = time-based
	SpawnRate         float64                   `yaml:"spawn_rate,omitempty"` // users per second
	DurationSec       int                       `yaml:"duration_sec,omitempty"`
	Iterations        int                       `yaml:"iterations,omitempty"` // per-user cap, 0 = unlimited
	RequestTimeoutSec int                       `yaml:"request_timeout_sec,omitempty"`
	TokenPath         string                    `yaml:"token_path,omitempty"` // JMESPath into the login response
	IDPath            string                    `yaml:"id_path,omitempty"`    // JMESPath into the create response
	TLS               *types.TLSConfig          `yaml:"tls,omitempty"`
	Profiles          map[string]ProfileOptions `yaml:"profiles,omitempty"`
}

// ProfileOptions overrides a built-in actor profile for one run.
type ProfileOptions struct {
	Users     int            `yaml:"users"`
	WaitMinMs int            `yaml:"wait_min_ms,omitempty"`
	WaitMaxMs int            `yaml:"wait_max_ms,omitempty"`
	Weights   map[string]int `yaml:"weights,omitempty"`
}

// Default returns a scenario with the built-in defaults applied.
func Default() *Scenario {
	return &Scenario{
		Host:      "http://localhost:3000",
		SpawnRate: 10,
		TokenPath: "token",
		IDPath:    "id",
		Profiles:  map[string]ProfileOptions{},
	}
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate validates the scenario configuration
func (s *Scenario) Validate() error {
	if s.Host == "" {
		return fmt.Errorf("host is required")
	}
	if s.SpawnRate <= 0 {
		return fmt.Errorf("spawn rate must be greater than 0")
	}
	if s.DurationSec < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	if s.Iterations < 0 {
		return fmt.Errorf("iterations cannot be negative")
	}
	if s.RequestTimeoutSec < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}

	total := 0
	for name, opts := range s.Profiles {
		if opts.Users < 0 {
			return fmt.Errorf("profile %q: users cannot be negative", name)
		}
		if opts.Users > 10000 {
			return fmt.Errorf("profile %q: users cannot exceed 10,000", name)
		}
		if opts.WaitMinMs < 0 || opts.WaitMaxMs < 0 {
			return fmt.Errorf("profile %q: wait bounds cannot be negative", name)
		}
		if opts.WaitMaxMs != 0 && opts.WaitMinMs > opts.WaitMaxMs {
			return fmt.Errorf("profile %q: wait_min_ms cannot exceed wait_max_ms", name)
		}
		for task, weight := range opts.Weights {
			if weight <= 0 {
				return fmt.Errorf("profile %q: weight for task %q must be greater than 0", name, task)
			}
		}
		total += opts.Users
	}
	if total == 0 {
		return fmt.Errorf("at least one profile must have users > 0")
	}
	if total > 10000 {
		return fmt.Errorf("total users cannot exceed 10,000")
	}

	return nil
}

// TotalUsers returns the total number of simulated users across all profiles.
func (s *Scenario) TotalUsers() int {
	total := 0
	for _, opts := range s.Profiles {
		total += opts.Users
	}
	return total
}

// GetDuration returns the run duration as time.Duration
func (s *Scenario) GetDuration() time.Duration {
	if s.DurationSec == 0 {
		return 0 // Unlimited
	}
	return time.Duration(s.DurationSec) * time.Second
}

// GetRequestTimeout returns the request timeout as time.Duration
func (s *Scenario) GetRequestTimeout() time.Duration {
	if s.RequestTimeoutSec == 0 {
		return 10 * time.Second // Default 10 seconds
	}
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

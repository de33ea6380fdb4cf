package actor

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/studiowebux/stampede/internal/config"
)

func TestPick_ConvergesToWeights(t *testing.T) {
	p := Viewer()
	rng := rand.New(rand.NewSource(1))

	const iterations = 200000
	counts := make(map[string]int)
	for i := 0; i < iterations; i++ {
		counts[p.Pick(rng).Name]++
	}

	total := 0
	for _, task := range p.Tasks {
		total += task.Weight
	}

	for _, task := range p.Tasks {
		expected := float64(task.Weight) / float64(total)
		observed := float64(counts[task.Name]) / float64(iterations)
		if math.Abs(observed-expected) > 0.01 {
			t.Errorf("Task %s: expected frequency %.3f, observed %.3f", task.Name, expected, observed)
		}
	}
}

func TestPick_AllProfilesReturnTasks(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, name := range Names() {
		p, err := ByName(name, "")
		if err != nil {
			t.Fatalf("ByName(%s) failed: %v", name, err)
		}
		for i := 0; i < 100; i++ {
			if task := p.Pick(rng); task == nil {
				t.Fatalf("Profile %s: Pick returned nil", name)
			}
		}
	}
}

func TestWait_WithinBounds(t *testing.T) {
	p := &Profile{
		Name:    "test",
		WaitMin: 100 * time.Millisecond,
		WaitMax: 500 * time.Millisecond,
	}
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 1000; i++ {
		wait := p.Wait(rng)
		if wait < p.WaitMin || wait > p.WaitMax {
			t.Fatalf("Wait %v outside [%v, %v]", wait, p.WaitMin, p.WaitMax)
		}
	}
}

func TestWait_EqualBounds(t *testing.T) {
	p := &Profile{WaitMin: time.Second, WaitMax: time.Second}
	rng := rand.New(rand.NewSource(3))

	if wait := p.Wait(rng); wait != time.Second {
		t.Errorf("Expected 1s, got %v", wait)
	}
}

func TestApply_WeightOverrides(t *testing.T) {
	p := Viewer()
	err := p.Apply(config.ProfileOptions{
		Weights: map[string]int{"browse_content": 10, "search_content": 5},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, task := range p.Tasks {
		switch task.Name {
		case "browse_content":
			if task.Weight != 10 {
				t.Errorf("Expected browse_content weight 10, got %d", task.Weight)
			}
		case "search_content":
			if task.Weight != 5 {
				t.Errorf("Expected search_content weight 5, got %d", task.Weight)
			}
		}
	}
}

func TestApply_UnknownTask(t *testing.T) {
	p := Subscriber()
	err := p.Apply(config.ProfileOptions{Weights: map[string]int{"no_such_task": 1}})
	if err == nil {
		t.Error("Expected error for unknown task name")
	}
}

func TestApply_WaitOverrides(t *testing.T) {
	p := Streamer()
	err := p.Apply(config.ProfileOptions{WaitMinMs: 10, WaitMaxMs: 20})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if p.WaitMin != 10*time.Millisecond || p.WaitMax != 20*time.Millisecond {
		t.Errorf("Expected wait bounds 10ms/20ms, got %v/%v", p.WaitMin, p.WaitMax)
	}
}

func TestApply_InvertedWaitBounds(t *testing.T) {
	p := Viewer()
	err := p.Apply(config.ProfileOptions{WaitMinMs: 6000, WaitMaxMs: 0})
	if err == nil {
		t.Error("Expected error when wait_min exceeds default wait_max")
	}
}

func TestByName_Unknown(t *testing.T) {
	if _, err := ByName("bot", ""); err == nil {
		t.Error("Expected error for unknown profile name")
	}
}

package actor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/studiowebux/stampede/internal/client"
	"github.com/studiowebux/stampede/internal/config"
	"github.com/studiowebux/stampede/internal/types"
)

// Task is one weighted request-emitting action of an actor profile.
// Run issues exactly one HTTP call and returns its result, or nil when the
// task skips itself because required session state is absent.
type Task struct {
	Name   string
	Weight int
	Run    func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult
}

// Profile is a named bundle of weighted tasks representing one user
// archetype hitting the target API on a loop.
type Profile struct {
	Name        string
	EmailPrefix string // login email is <prefix>_<uuid[:8]>@test.com
	Password    string
	Role        string // optional role field in the login body
	SkipLogin   bool   // standalone actors that run on the placeholder token
	WaitMin     time.Duration
	WaitMax     time.Duration
	TokenPath   string // JMESPath into the login response
	Tasks       []Task
}

// Pick selects a task with probability proportional to its weight,
// independently on each call, with replacement.
func (p *Profile) Pick(rng *rand.Rand) *Task {
	total := 0
	for i := range p.Tasks {
		total += p.Tasks[i].Weight
	}
	n := rng.Intn(total)
	for i := range p.Tasks {
		n -= p.Tasks[i].Weight
		if n < 0 {
			return &p.Tasks[i]
		}
	}
	// Unreachable when weights are positive
	return &p.Tasks[len(p.Tasks)-1]
}

// Wait returns a uniformly random sleep interval in [WaitMin, WaitMax].
func (p *Profile) Wait(rng *rand.Rand) time.Duration {
	if p.WaitMax <= p.WaitMin {
		return p.WaitMin
	}
	return p.WaitMin + time.Duration(rng.Int63n(int64(p.WaitMax-p.WaitMin)+1))
}

// Execute runs one task and stamps the result with the profile and task
// names. A nil result means the task skipped itself.
func (p *Profile) Execute(ctx context.Context, c *client.Client, t *Task, s *Session) *types.RequestResult {
	result := t.Run(ctx, c, s)
	if result != nil {
		result.Profile = p.Name
		result.Task = t.Name
	}
	return result
}

// Apply overrides the profile's wait bounds and task weights from
// scenario options.
func (p *Profile) Apply(opts config.ProfileOptions) error {
	if opts.WaitMinMs > 0 {
		p.WaitMin = time.Duration(opts.WaitMinMs) * time.Millisecond
	}
	if opts.WaitMaxMs > 0 {
		p.WaitMax = time.Duration(opts.WaitMaxMs) * time.Millisecond
	}
	if p.WaitMax < p.WaitMin {
		return fmt.Errorf("profile %q: wait_max is below wait_min", p.Name)
	}

	for name, weight := range opts.Weights {
		found := false
		for i := range p.Tasks {
			if p.Tasks[i].Name == name {
				p.Tasks[i].Weight = weight
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("profile %q has no task %q", p.Name, name)
		}
	}

	return nil
}

package actor

import (
	"context"
	"math/rand"
	"net/http"

	"github.com/google/uuid"

	"github.com/studiowebux/stampede/internal/client"
	"github.com/studiowebux/stampede/internal/types"
)

// PlaceholderToken is attached when no real token could be obtained.
// Sessions running on it still generate load, but the failed login is
// always surfaced as a recorded auth failure, never masked.
const PlaceholderToken = "test-token"

// Session is the ephemeral per-user state: a random identifier, the bearer
// token obtained once at session start, and the append-only list of content
// ids this session has created. Sessions are never shared between users.
type Session struct {
	UserID     string
	Token      string
	ContentIDs []string
	Rng        *rand.Rand
}

// NewSession creates a session with a random user identifier and its own
// seeded PRNG. Each simulated user owns exactly one Session and one Rng, so
// a fixed seed makes the user's task sequence reproducible.
func NewSession(seed int64) *Session {
	return &Session{
		UserID: uuid.NewString(),
		Rng:    rand.New(rand.NewSource(seed)),
	}
}

// loginBody is the authentication request payload.
type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Login bootstraps the session: one authentication request with synthesized
// credentials, extracting the bearer token from the response. On any
// failure the session falls back to PlaceholderToken and the returned
// result records an auth failure. Profiles with SkipLogin set start
// directly on the placeholder token and return no result.
func (p *Profile) Login(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
	if p.SkipLogin {
		s.Token = PlaceholderToken
		return nil
	}

	tokenPath := p.TokenPath
	if tokenPath == "" {
		tokenPath = "token"
	}

	result := c.Do(ctx, client.Request{
		Method:   http.MethodPost,
		Path:     "/api/auth/login",
		Endpoint: "POST /api/auth/login",
		Body: loginBody{
			Email:    p.EmailPrefix + "_" + s.UserID[:8] + "@test.com",
			Password: p.Password,
			Role:     p.Role,
		},
	})
	result.Profile = p.Name
	result.Task = "login"

	if result.Failed {
		s.Token = PlaceholderToken
		result.AuthFailure = true
		return result
	}

	token, err := client.ExtractString(result.Body, tokenPath)
	if err != nil {
		s.Token = PlaceholderToken
		result.Failed = true
		result.AuthFailure = true
		result.Message = result.Endpoint + " failed: no token in response"
		return result
	}

	s.Token = token
	return result
}

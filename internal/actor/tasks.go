package actor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/studiowebux/stampede/internal/client"
	"github.com/studiowebux/stampede/internal/types"
)

const (
	// Content ids are drawn uniformly from [1, ContentIDRange].
	ContentIDRange = 100

	// StreamTimeout is the explicit timeout for streaming calls.
	StreamTimeout = 30 * time.Second
)

// searchTerms is the fixed vocabulary for the search task.
var searchTerms = []string{"tutorial", "music", "video", "live", "exclusive", "trending"}

// categories for published content.
var categories = []string{"music", "video", "tutorial", "podcast"}

// randomContentID draws a content id uniformly from the bounded range.
func randomContentID(s *Session) int {
	return s.Rng.Intn(ContentIDRange) + 1
}

// Viewer simulates a user browsing and streaming content.
func Viewer() *Profile {
	return &Profile{
		Name:        "viewer",
		EmailPrefix: "user",
		Password:    "test-password-123",
		WaitMin:     1 * time.Second,
		WaitMax:     5 * time.Second,
		Tasks: []Task{
			{
				Name:   "browse_content",
				Weight: 5,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					page := s.Rng.Intn(10) + 1
					limit := []int{10, 20, 50}[s.Rng.Intn(3)]
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     fmt.Sprintf("/api/content/browse?page=%d&limit=%d", page, limit),
						Endpoint: "GET /api/content/browse",
						Token:    s.Token,
					})
				},
			},
			{
				Name:   "view_content",
				Weight: 4,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     fmt.Sprintf("/api/content/%d", randomContentID(s)),
						Endpoint: "GET /api/content/{id}",
						Token:    s.Token,
					})
				},
			},
			{
				Name:   "stream_content",
				Weight: 3,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     fmt.Sprintf("/api/content/%d/stream", randomContentID(s)),
						Endpoint: "GET /api/content/{id}/stream",
						Token:    s.Token,
						Timeout:  StreamTimeout,
					})
				},
			},
			{
				Name:   "like_content",
				Weight: 2,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodPost,
						Path:     fmt.Sprintf("/api/content/%d/like", randomContentID(s)),
						Endpoint: "POST /api/content/{id}/like",
						Token:    s.Token,
						Allow:    []int{http.StatusOK, http.StatusCreated},
					})
				},
			},
			{
				Name:   "search_content",
				Weight: 1,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					query := searchTerms[s.Rng.Intn(len(searchTerms))]
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     "/api/content/search?q=" + query,
						Endpoint: "GET /api/content/search",
						Token:    s.Token,
					})
				},
			},
		},
	}
}

// createBody is the publish request payload.
type createBody struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Duration    int     `json:"duration"`
}

// updateBody is the content update payload.
type updateBody struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Creator simulates a content creator publishing and managing content.
// The update and analytics tasks only run once the session has published
// at least one piece of content.
func Creator(idPath string) *Profile {
	if idPath == "" {
		idPath = "id"
	}

	p := &Profile{
		Name:        "creator",
		EmailPrefix: "creator",
		Password:    "creator-password-123",
		Role:        "creator",
		WaitMin:     2 * time.Second,
		WaitMax:     8 * time.Second,
	}

	p.Tasks = []Task{
		{
			Name:   "publish_content",
			Weight: 3,
			Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
				result := c.Do(ctx, client.Request{
					Method:   http.MethodPost,
					Path:     "/api/content/create",
					Endpoint: "POST /api/content/create",
					Token:    s.Token,
					Allow:    []int{http.StatusCreated},
					Body: createBody{
						Title:       fmt.Sprintf("Content_%d", time.Now().Unix()),
						Description: "Test content for load testing",
						Category:    categories[s.Rng.Intn(len(categories))],
						Price:       0.99 + s.Rng.Float64()*9.0,
						Duration:    s.Rng.Intn(3541) + 60,
					},
				})
				if !result.Failed {
					if id, err := client.ExtractString(result.Body, idPath); err == nil {
						s.ContentIDs = append(s.ContentIDs, id)
					}
				}
				return result
			},
		},
		{
			Name:   "update_content",
			Weight: 2,
			Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
				if len(s.ContentIDs) == 0 {
					return nil
				}
				id := s.ContentIDs[s.Rng.Intn(len(s.ContentIDs))]
				return c.Do(ctx, client.Request{
					Method:   http.MethodPut,
					Path:     "/api/content/" + id,
					Endpoint: "PUT /api/content/{id}",
					Token:    s.Token,
					Body: updateBody{
						Description: fmt.Sprintf("Updated at %d", time.Now().Unix()),
						Price:       0.99 + s.Rng.Float64()*9.0,
					},
				})
			},
		},
		{
			Name:   "view_analytics",
			Weight: 2,
			Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
				if len(s.ContentIDs) == 0 {
					return nil
				}
				id := s.ContentIDs[s.Rng.Intn(len(s.ContentIDs))]
				return c.Do(ctx, client.Request{
					Method:   http.MethodGet,
					Path:     "/api/content/" + id + "/analytics",
					Endpoint: "GET /api/content/{id}/analytics",
					Token:    s.Token,
				})
			},
		},
		{
			Name:   "list_content",
			Weight: 1,
			Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
				return c.Do(ctx, client.Request{
					Method:   http.MethodGet,
					Path:     "/api/creator/content",
					Endpoint: "GET /api/creator/content",
					Token:    s.Token,
				})
			},
		},
	}

	return p
}

// Subscriber simulates a paying user checking subscriptions and premium
// access. Premium requests treat 403 as an expected outcome.
func Subscriber() *Profile {
	return &Profile{
		Name:        "subscriber",
		EmailPrefix: "subscriber",
		Password:    "subscriber-password-123",
		WaitMin:     1 * time.Second,
		WaitMax:     4 * time.Second,
		Tasks: []Task{
			{
				Name:   "view_subscriptions",
				Weight: 4,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     "/api/subscriptions",
						Endpoint: "GET /api/subscriptions",
						Token:    s.Token,
					})
				},
			},
			{
				Name:   "access_premium_content",
				Weight: 3,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     fmt.Sprintf("/api/content/%d/premium", randomContentID(s)),
						Endpoint: "GET /api/content/{id}/premium",
						Token:    s.Token,
						Allow:    []int{http.StatusOK, http.StatusForbidden},
					})
				},
			},
			{
				Name:   "payment_methods",
				Weight: 2,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     "/api/payments/methods",
						Endpoint: "GET /api/payments/methods",
						Token:    s.Token,
					})
				},
			},
			{
				Name:   "subscription_status",
				Weight: 1,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     "/api/subscriptions/status",
						Endpoint: "GET /api/subscriptions/status",
						Token:    s.Token,
					})
				},
			},
		},
	}
}

// Streamer is the standalone streaming-focused actor. It skips the login
// bootstrap and runs on the placeholder token against the delivery API.
func Streamer() *Profile {
	return &Profile{
		Name:      "streamer",
		SkipLogin: true,
		WaitMin:   1 * time.Second,
		WaitMax:   3 * time.Second,
		Tasks: []Task{
			{
				Name:   "stream_delivery",
				Weight: 3,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     fmt.Sprintf("/api/delivery/%d/stream", randomContentID(s)),
						Endpoint: "GET /api/delivery/{id}/stream",
						Token:    s.Token,
					})
				},
			},
			{
				Name:   "delivery_metadata",
				Weight: 1,
				Run: func(ctx context.Context, c *client.Client, s *Session) *types.RequestResult {
					return c.Do(ctx, client.Request{
						Method:   http.MethodGet,
						Path:     fmt.Sprintf("/api/delivery/%d/metadata", randomContentID(s)),
						Endpoint: "GET /api/delivery/{id}/metadata",
						Token:    s.Token,
					})
				},
			},
		},
	}
}

// ByName builds a fresh built-in profile by name.
func ByName(name string, idPath string) (*Profile, error) {
	switch name {
	case "viewer":
		return Viewer(), nil
	case "creator":
		return Creator(idPath), nil
	case "subscriber":
		return Subscriber(), nil
	case "streamer":
		return Streamer(), nil
	default:
		return nil, fmt.Errorf("unknown profile %q (known: viewer, creator, subscriber, streamer)", name)
	}
}

// Names lists the built-in profile names in display order.
func Names() []string {
	return []string{"viewer", "creator", "subscriber", "streamer"}
}

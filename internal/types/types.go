package types

import "time"

// RequestResult is the outcome of a single issued request.
type RequestResult struct {
	Profile      string    `json:"profile"`
	Task         string    `json:"task"`
	Endpoint     string    `json:"endpoint"` // method + templated path, e.g. "GET /api/content/{id}"
	Status       int       `json:"status"`   // 0 indicates a network failure
	DurationMs   int64     `json:"durationMs"`
	RequestSize  int64     `json:"requestSize"`
	ResponseSize int64     `json:"responseSize"`
	Body         string    `json:"-"` // response body, kept in memory only for extraction
	Failed       bool      `json:"failed"`
	AuthFailure  bool      `json:"authFailure,omitempty"`
	Message      string    `json:"message,omitempty"` // failure detail; empty on success
	Timestamp    time.Time `json:"timestamp"`
}

// TLSConfig contains TLS settings for the shared HTTP client
type TLSConfig struct {
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	CertFile           string `json:"certFile,omitempty" yaml:"cert_file,omitempty"`
	KeyFile            string `json:"keyFile,omitempty" yaml:"key_file,omitempty"`
	CAFile             string `json:"caFile,omitempty" yaml:"ca_file,omitempty"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "dimensions-go/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// APIConfig holds settings for the Dimensions Analytics API client.
type APIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the Analytics API base URL (default "https://app.dimensions.ai").
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey authenticates the session. Usually resolved from the
	// environment or .secrets/ rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries bounds retry attempts on HTTP 429 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// QueryConfig holds default query parameters applied when a spec leaves
// the optional fields unset.
type QueryConfig struct {
	// Search is the default record scope (default "publications").
	Search string `json:"search" yaml:"search"`

	// ReturnCols is the default plus-delimited projection (default "id+title").
	ReturnCols string `json:"return_cols" yaml:"return_cols"`

	// Limit is the default maximum number of records (default 20).
	Limit int `json:"limit" yaml:"limit"`
}

// HistoryConfig holds settings for the local query history store.
type HistoryConfig struct {
	// HistoryDir is the base directory for history (contains index/, export/).
	HistoryDir string `json:"history_dir" yaml:"history_dir"`

	// MaxResults is the default maximum number of history entries listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ClientConfig groups all configuration for the dimensions CLI.
type ClientConfig struct {
	API     APIConfig     `json:"api" yaml:"api"`
	Query   QueryConfig   `json:"query" yaml:"query"`
	History HistoryConfig `json:"history" yaml:"history"`
}

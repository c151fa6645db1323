// Package auth loads the feed credential bundle.
//
// The bundle is an opaque JSON document (API key, API secret, access token)
// produced by an out-of-band token refresh; this package only reads and
// validates it. Missing or incomplete credentials are a fatal startup
// condition.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credentials is the feed credential bundle.
type Credentials struct {
	APIKey      string `json:"API_KEY"`
	APISecret   string `json:"API_SECRET"`
	AccessToken string `json:"ACCESS_TOKEN"`
}

// LoadCredentials reads and validates the bundle from a JSON file.
func LoadCredentials(path string) (*Credentials, error) {
	if path == "" {
		return nil, fmt.Errorf("credentials file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Validate checks that every field of the bundle is present.
func (c *Credentials) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("credentials missing API_KEY")
	}
	if c.APISecret == "" {
		return fmt.Errorf("credentials missing API_SECRET")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("credentials missing ACCESS_TOKEN")
	}
	return nil
}

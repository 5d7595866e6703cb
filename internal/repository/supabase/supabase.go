// Package supabase implements the repository interfaces against a managed
// Supabase Postgres over PostgREST. It is the production counterpart of the
// sqlite backend: same interfaces, no behavior of its own beyond translating
// PostgREST results and error codes into the application taxonomy.
package supabase

import (
	"fmt"
	"strings"

	supa "github.com/supabase-community/supabase-go"

	"github.com/mkaye/memorybox/internal/apperror"
)

// Client wraps the Supabase SDK client for the data tables. Reads use the
// anon key; the privileged service-role key is only needed by the storage
// upload path, not here.
type Client struct {
	sb *supa.Client
}

// New creates a repository client. URL and key come from the environment;
// the caller decides which key (anon or service-role) this client runs with.
//
// Missing credentials are not a startup failure: the server still comes up
// and every store operation returns a typed dependency error instead.
func New(url, key string) (*Client, error) {
	if url == "" || key == "" {
		return &Client{}, nil
	}
	sb, err := supa.NewClient(url, key, &supa.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase: creating client: %w", err)
	}
	return &Client{sb: sb}, nil
}

// ready guards every operation against the unconfigured state.
func (c *Client) ready() error {
	if c.sb == nil {
		return apperror.Dependency("supabase store is not configured: SUPABASE_URL and SUPABASE_ANON_KEY are required")
	}
	return nil
}

// translateError maps PostgREST/Postgres error codes embedded in the SDK's
// error text onto the application taxonomy:
//
//	PGRST116 — single-object request matched 0 rows → not found
//	23505    — unique violation (duplicate slug)    → conflict
//	42501    — row-level-security denial            → forbidden
//
// Anything else is a dependency failure (store unreachable, bad credentials).
func translateError(err error, resource, key string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "PGRST116"):
		return apperror.NotFound(resource, key)
	case strings.Contains(msg, "23505"):
		return apperror.Conflict(resource, key)
	case strings.Contains(msg, "42501"):
		return apperror.Forbidden("submission rejected by store policy")
	default:
		return apperror.Dependency(fmt.Sprintf("store request failed: %v", err))
	}
}

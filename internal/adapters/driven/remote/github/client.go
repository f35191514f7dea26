package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Ensure Client implements the port.
var _ driven.RemoteClient = (*Client)(nil)

// Client fetches repository contents through the go-github client,
// authenticated with a static bearer token.
type Client struct {
	gh          *gh.Client
	remote      domain.RemoteConfig
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub client for the configured repository.
func NewClient(ctx context.Context, remote domain.RemoteConfig, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout
	return &Client{
		gh:          gh.NewClient(tc),
		remote:      remote,
		rateLimiter: NewRateLimiter(),
	}
}

// Get fetches the file at path from the configured repository and ref.
// A missing path is reported as a not-found fetch error so the caller
// can distinguish it from transient network failure.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: c.remote.Ref}
	content, _, resp, err := c.gh.Repositories.GetContents(ctx, c.remote.Owner, c.remote.Repo, path, opts)
	if err != nil {
		return nil, c.fetchError(path, c.wrapError(err, "get contents"))
	}
	if resp != nil {
		c.rateLimiter.UpdateFromResponse(resp.Response)
	}

	if content == nil {
		return nil, domain.NewFetchError(path, domain.FetchNotFound,
			fmt.Errorf("path is a directory, not a file"))
	}

	decoded, err := content.GetContent()
	if err != nil {
		return nil, domain.NewFetchError(path, domain.FetchNetwork,
			fmt.Errorf("decode content: %w", err))
	}
	return []byte(decoded), nil
}

// Validate checks the configured token by fetching the authenticated
// user. Called once at startup; a failure here is fatal.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return c.wrapError(err, "validate credentials")
	}
	if resp != nil {
		c.rateLimiter.UpdateFromResponse(resp.Response)
	}
	return nil
}

// RateLimiter exposes the limiter for status reporting.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// fetchError classifies a wrapped API failure into a FetchError kind.
func (c *Client) fetchError(path string, err error) error {
	switch {
	case IsNotFound(err):
		return domain.NewFetchError(path, domain.FetchNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewFetchError(path, domain.FetchTimeout, err)
	default:
		return domain.NewFetchError(path, domain.FetchNetwork, err)
	}
}

// wrapError converts go-github failures into package error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}

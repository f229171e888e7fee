// Package reddit fetches subreddit content through the official OAuth API.
//
// The client authenticates with an application-only (client credentials)
// grant and keeps the bearer token cached until shortly before it expires.
// All requests share one rate limiter and one HTTP client with an explicit
// timeout.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"subsight/pkg/types"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBase  = "https://oauth.reddit.com"
	userAgent       = "subsight/1.0"

	// tokenMargin is subtracted from the advertised token lifetime so we
	// never send a request with a token about to expire mid-flight.
	tokenMargin = time.Minute

	postLimit      = 25
	commentedPosts = 10
	commentLimit   = 5

	requestTimeout = 15 * time.Second
)

// Client talks to the Reddit OAuth API.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	limiter      *rate.Limiter
	log          zerolog.Logger

	tokenURL string
	apiBase  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints overrides the token and API base URLs. Used in tests.
func WithEndpoints(tokenURL, apiBase string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
		c.apiBase = apiBase
	}
}

// NewClient creates a Reddit client from the given credentials.
func NewClient(creds types.Credentials, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		clientID:     creds.RedditClientID,
		clientSecret: creds.RedditClientSecret,
		httpClient:   &http.Client{Timeout: requestTimeout},
		// Reddit allows 100 requests/minute for OAuth clients; stay under it.
		limiter:  rate.NewLimiter(rate.Every(time.Second), 5),
		log:      log.With().Str("component", "reddit").Logger(),
		tokenURL: defaultTokenURL,
		apiBase:  defaultAPIBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// token returns a valid bearer token, reusing the cached one until it is
// within tokenMargin of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", &types.AuthError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", &types.AuthError{Err: err}
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &types.AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &types.AuthError{Err: fmt.Errorf("token endpoint returned %s", resp.Status)}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &types.AuthError{Err: fmt.Errorf("decoding token response: %w", err)}
	}
	if body.AccessToken == "" {
		return "", &types.AuthError{Err: errors.New("token response missing access_token")}
	}

	c.accessToken = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - tokenMargin)
	c.log.Debug().Time("expiry", c.tokenExpiry).Msg("obtained access token")
	return c.accessToken, nil
}

// get performs an authenticated GET against the API and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit api returned %s for %s", resp.Status, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ValidateSubreddit probes whether a subreddit exists and is accessible.
// It never returns an error; any failure (network, 404, auth) reads as false.
func (c *Client) ValidateSubreddit(ctx context.Context, name string) bool {
	var about aboutResponse
	if err := c.get(ctx, "/r/"+name+"/about", &about); err != nil {
		c.log.Debug().Err(err).Str("subreddit", name).Msg("subreddit validation failed")
		return false
	}
	return true
}

// FetchSnapshot retrieves a subreddit's metadata, its current hot posts, and
// the top comments of the highest-ranked posts. Failures fetching comments
// for an individual post are logged and skipped; a failure on the metadata
// or listing calls aborts the whole fetch.
func (c *Client) FetchSnapshot(ctx context.Context, name string) (*types.Snapshot, error) {
	var about aboutResponse
	if err := c.get(ctx, "/r/"+name+"/about", &about); err != nil {
		return nil, &types.FetchError{Subreddit: name, Err: err}
	}

	var hot listingResponse
	if err := c.get(ctx, fmt.Sprintf("/r/%s/hot?limit=%d", name, postLimit), &hot); err != nil {
		return nil, &types.FetchError{Subreddit: name, Err: err}
	}

	posts := make([]types.Post, 0, len(hot.Data.Children))
	for _, child := range hot.Data.Children {
		posts = append(posts, child.Data.toPost())
	}

	// Comments only for the highest-ranked posts, fetched one post at a
	// time so a partial failure cannot reorder or corrupt the rest.
	var comments []types.Comment
	top := posts
	if len(top) > commentedPosts {
		top = top[:commentedPosts]
	}
	for _, post := range top {
		fetched, err := c.fetchComments(ctx, post.Permalink)
		if err != nil {
			c.log.Warn().Err(err).Str("post", post.ID).Msg("skipping comments for post")
			continue
		}
		comments = append(comments, fetched...)
	}

	return &types.Snapshot{
		Subreddit: about.Data.toInfo(),
		Posts:     posts,
		Comments:  comments,
		FetchedAt: time.Now(),
	}, nil
}

// fetchComments returns the top comments under a post, dropping entries whose
// body marks removed content.
func (c *Client) fetchComments(ctx context.Context, permalink string) ([]types.Comment, error) {
	var pages []listingResponse
	path := fmt.Sprintf("%s?limit=%d&sort=top", permalink, commentLimit)
	if err := c.get(ctx, path, &pages); err != nil {
		return nil, err
	}
	// The comments endpoint returns two listings: the post itself, then its
	// comment tree.
	if len(pages) < 2 {
		return nil, nil
	}

	var comments []types.Comment
	for _, child := range pages[1].Data.Children {
		if child.Data.Body == "" || isRemoved(child.Data.Body) {
			continue
		}
		comments = append(comments, child.Data.toComment())
	}
	return comments, nil
}

// isRemoved reports whether a comment body is one of Reddit's removal
// placeholders.
func isRemoved(body string) bool {
	return body == "[deleted]" || body == "[removed]"
}

package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"subsight/pkg/types"
)

type fakeReddit struct {
	tokenExchanges atomic.Int64
	expiresIn      int

	aboutStatus   int
	hotStatus     int
	commentStatus map[string]int // permalink -> status override
}

func newFakeReddit() *fakeReddit {
	return &fakeReddit{
		expiresIn:     3600,
		aboutStatus:   http.StatusOK,
		hotStatus:     http.StatusOK,
		commentStatus: map[string]int{},
	}
}

func (f *fakeReddit) tokenHandler(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "test-id" || pass != "test-secret" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	f.tokenExchanges.Add(1)
	fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":%d}`, f.tokenExchanges.Load(), f.expiresIn)
}

func (f *fakeReddit) apiHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	switch {
	case r.URL.Path == "/r/startups/about":
		if f.aboutStatus != http.StatusOK {
			http.Error(w, "nope", f.aboutStatus)
			return
		}
		fmt.Fprint(w, `{"data":{"name":"t5_startups","display_name":"startups","subscribers":500000,"description":"All about startups","created_utc":1201234567,"public_description":"Startup community"}}`)
	case r.URL.Path == "/r/startups/hot":
		if f.hotStatus != http.StatusOK {
			http.Error(w, "nope", f.hotStatus)
			return
		}
		fmt.Fprint(w, `{"data":{"children":[
			{"kind":"t3","data":{"id":"p1","title":"My SaaS failed","selftext":"Long story","author":"alice","score":120,"num_comments":42,"url":"https://example.com/p1","permalink":"/r/startups/comments/p1/x/","subreddit":"startups","is_self":true,"domain":"self.startups","upvote_ratio":0.93}},
			{"kind":"t3","data":{"id":"p2","title":"Pricing question","author":"bob","score":80,"num_comments":10,"url":"https://example.com/p2","permalink":"/r/startups/comments/p2/y/","subreddit":"startups","is_self":false,"domain":"example.com"}}
		]}}`)
	case r.URL.Path == "/r/startups/comments/p1/x/":
		fmt.Fprint(w, `[
			{"data":{"children":[{"kind":"t3","data":{"id":"p1"}}]}},
			{"data":{"children":[
				{"kind":"t1","data":{"id":"c1","body":"Great write-up","author":"carol","score":30,"parent_id":"t3_p1","permalink":"/r/startups/comments/p1/x/c1/"}},
				{"kind":"t1","data":{"id":"c2","body":"[deleted]","author":"[deleted]","score":2,"parent_id":"t3_p1"}},
				{"kind":"t1","data":{"id":"c3","body":"Churn was the killer","author":"dave","score":17,"parent_id":"t3_p1","permalink":"/r/startups/comments/p1/x/c3/"}}
			]}}
		]`)
	case r.URL.Path == "/r/startups/comments/p2/y/":
		if status, ok := f.commentStatus["/r/startups/comments/p2/y/"]; ok {
			http.Error(w, "nope", status)
			return
		}
		fmt.Fprint(w, `[
			{"data":{"children":[{"kind":"t3","data":{"id":"p2"}}]}},
			{"data":{"children":[
				{"kind":"t1","data":{"id":"c4","body":"Charge more","author":"erin","score":55,"parent_id":"t3_p2","permalink":"/r/startups/comments/p2/y/c4/"}}
			]}}
		]`)
	case r.URL.Path == "/r/ghosttown/about":
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, f *fakeReddit) *Client {
	t.Helper()
	tokenSrv := httptest.NewServer(http.HandlerFunc(f.tokenHandler))
	t.Cleanup(tokenSrv.Close)
	apiSrv := httptest.NewServer(http.HandlerFunc(f.apiHandler))
	t.Cleanup(apiSrv.Close)

	creds := types.Credentials{RedditClientID: "test-id", RedditClientSecret: "test-secret"}
	return NewClient(creds, zerolog.Nop(), WithEndpoints(tokenSrv.URL, apiSrv.URL))
}

func TestTokenReuse(t *testing.T) {
	ctx := context.Background()
	f := newFakeReddit()
	c := newTestClient(t, f)

	tok1, err := c.token(ctx)
	require.NoError(t, err)
	tok2, err := c.token(ctx)
	require.NoError(t, err)

	require.Equal(t, tok1, tok2)
	require.EqualValues(t, 1, f.tokenExchanges.Load(), "second call within validity must not re-exchange")
}

func TestTokenReExchangeAfterExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFakeReddit()
	// A lifetime below the safety margin means the token is already
	// considered expired, so each call must exchange again.
	f.expiresIn = 30
	c := newTestClient(t, f)

	_, err := c.token(ctx)
	require.NoError(t, err)
	_, err = c.token(ctx)
	require.NoError(t, err)

	require.EqualValues(t, 2, f.tokenExchanges.Load())
}

func TestTokenBadCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFakeReddit()
	tokenSrv := httptest.NewServer(http.HandlerFunc(f.tokenHandler))
	t.Cleanup(tokenSrv.Close)

	creds := types.Credentials{RedditClientID: "wrong", RedditClientSecret: "wrong"}
	c := NewClient(creds, zerolog.Nop(), WithEndpoints(tokenSrv.URL, "http://unused.invalid"))

	_, err := c.token(ctx)
	var authErr *types.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestValidateSubreddit(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newFakeReddit())

	require.True(t, c.ValidateSubreddit(ctx, "startups"))
	require.False(t, c.ValidateSubreddit(ctx, "ghosttown"))
}

func TestFetchSnapshot(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newFakeReddit())

	snap, err := c.FetchSnapshot(ctx, "startups")
	require.NoError(t, err)

	require.Equal(t, "startups", snap.Subreddit.DisplayName)
	require.Equal(t, 500000, snap.Subreddit.Subscribers)
	// Optional counter absent from the payload defaults to zero.
	require.Equal(t, 0, snap.Subreddit.ActiveUserCount)

	require.Len(t, snap.Posts, 2)
	require.Equal(t, "p1", snap.Posts[0].ID, "posts keep API rank order")
	require.Equal(t, "p2", snap.Posts[1].ID)
	require.Equal(t, "", snap.Posts[1].SelfText, "missing selftext defaults to empty")

	// c2 is [deleted] and must be filtered; relative order is preserved.
	ids := make([]string, 0, len(snap.Comments))
	for _, comment := range snap.Comments {
		ids = append(ids, comment.ID)
	}
	require.Equal(t, []string{"c1", "c3", "c4"}, ids)
	require.False(t, snap.FetchedAt.IsZero())
}

func TestFetchSnapshotCommentFailureSkipsPost(t *testing.T) {
	ctx := context.Background()
	f := newFakeReddit()
	f.commentStatus["/r/startups/comments/p2/y/"] = http.StatusInternalServerError
	c := newTestClient(t, f)

	snap, err := c.FetchSnapshot(ctx, "startups")
	require.NoError(t, err, "a per-post comment failure must not abort the snapshot")

	ids := make([]string, 0, len(snap.Comments))
	for _, comment := range snap.Comments {
		ids = append(ids, comment.ID)
	}
	require.Equal(t, []string{"c1", "c3"}, ids)
}

func TestFetchSnapshotAboutFailure(t *testing.T) {
	ctx := context.Background()
	f := newFakeReddit()
	f.aboutStatus = http.StatusBadGateway
	c := newTestClient(t, f)

	_, err := c.FetchSnapshot(ctx, "startups")
	var fetchErr *types.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, "startups", fetchErr.Subreddit)
}

func TestFetchSnapshotAuthFailurePropagates(t *testing.T) {
	ctx := context.Background()
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(tokenSrv.Close)

	creds := types.Credentials{RedditClientID: "id", RedditClientSecret: "secret"}
	c := NewClient(creds, zerolog.Nop(), WithEndpoints(tokenSrv.URL, "http://unused.invalid"))

	_, err := c.FetchSnapshot(ctx, "startups")
	require.True(t, errors.As(err, new(*types.FetchError)))
	require.True(t, errors.As(err, new(*types.AuthError)), "auth failure should stay visible through the wrap chain")
}

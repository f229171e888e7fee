// Package types defines the core domain types for the Subsight assistant.
package types

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Credentials holds the secrets needed to reach the external APIs. All three
// are opaque strings; the only validation anywhere is non-emptiness.
type Credentials struct {
	RedditClientID     string `json:"redditClientId"`
	RedditClientSecret string `json:"redditClientSecret"`
	GeminiAPIKey       string `json:"geminiApiKey"`
}

// AppConfig is the persisted representation of Credentials. The in-memory and
// stored forms are identical.
type AppConfig = Credentials

// Configured reports whether all three secrets are present. Until they are,
// every network operation is blocked; there are no built-in defaults.
func (c Credentials) Configured() bool {
	return c.RedditClientID != "" && c.RedditClientSecret != "" && c.GeminiAPIKey != ""
}

// SubredditInfo is an immutable snapshot of a subreddit's public metadata at
// fetch time.
type SubredditInfo struct {
	Name              string  `json:"name"`
	DisplayName       string  `json:"display_name"`
	Subscribers       int     `json:"subscribers"`
	ActiveUserCount   int     `json:"active_user_count"`
	Description       string  `json:"description"`
	CreatedUTC        float64 `json:"created_utc"`
	PublicDescription string  `json:"public_description"`
}

// Post is a single subreddit submission. Immutable once fetched.
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	IsSelf      bool    `json:"is_self"`
	Domain      string  `json:"domain"`
	UpvoteRatio float64 `json:"upvote_ratio"`
}

// Comment is a single reply to a post. Comments whose body carries a removal
// marker are filtered out at fetch time and never appear here.
type Comment struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
	ParentID   string  `json:"parent_id"`
	Permalink  string  `json:"permalink"`
}

// Snapshot aggregates everything fetched for one subreddit in a single pass:
// metadata, posts in API rank order, and comments grouped by source post.
// A snapshot is immutable after construction; refreshing always replaces the
// whole value, never patches it.
type Snapshot struct {
	Subreddit SubredditInfo `json:"subreddit"`
	Posts     []Post        `json:"posts"`
	Comments  []Comment     `json:"comments"`
	FetchedAt time.Time     `json:"fetchedAt"`
}

// Message is one conversation turn. Created once, never mutated afterwards.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []string  `json:"sources,omitempty"`
	Streaming bool      `json:"isStreaming,omitempty"`
}

// Conversation is the append-only chat history bound to one subreddit.
// There is exactly one conversation per subreddit per profile.
type Conversation struct {
	ID        string    `json:"id"`
	Subreddit string    `json:"subreddit"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

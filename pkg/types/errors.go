package types

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by any network operation attempted before the
// user has supplied a full set of credentials.
var ErrNotConfigured = errors.New("credentials not configured")

// AuthError reports a failed client-credentials token exchange. Fatal to the
// fetch it happened in; retrying the whole fetch later is the recovery path.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("reddit authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports that a subreddit lookup or listing failed. It always
// names the subreddit so the failure can be surfaced verbatim to the user.
type FetchError struct {
	Subreddit string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch data for r/%s: %v", e.Subreddit, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// GenerationError reports that the model call failed or produced nothing.
// The conversation keeps the unanswered user turn; nothing retries.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate response: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

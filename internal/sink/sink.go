// Package sink holds the result sinks: archival storage and the push
// notification channel. Sink failures are logged by callers and never
// abort a run.
package sink

import "context"

// Archiver stores the final digest text under a key and returns an
// optional retrievable URL (empty when none is available).
type Archiver interface {
	Archive(ctx context.Context, key, body string) (string, error)
}

// Notifier pushes a title and body to a notification channel,
// fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

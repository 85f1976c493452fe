package llm

import "fmt"

// ErrorKind classifies why a single completion attempt failed.
type ErrorKind string

const (
	// KindTransport covers network and HTTP-level failures.
	KindTransport ErrorKind = "transport"
	// KindResponse covers responses that cannot be parsed into text and
	// a finish reason.
	KindResponse ErrorKind = "response"
	// KindTruncated marks output that was cut off before completing.
	KindTruncated ErrorKind = "truncated"
)

// ModelError is a failed attempt against one model candidate. It triggers
// fallback to the next candidate, never aborting the run by itself.
type ModelError struct {
	Model string
	Kind  ErrorKind
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// DiscoveryError means the model list could not be retrieved after retries,
// or produced no eligible candidates. It is fatal to the run.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("model discovery: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

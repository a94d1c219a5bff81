package audiosweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrorKind classifies failures so callers can decide per kind whether a run
// continues, retries or aborts.
type ErrorKind int

const (
	// ConfigurationError covers missing input files, bad flags and held locks.
	ConfigurationError ErrorKind = iota + 1
	// ParseError covers malformed record rows and timestamps.
	ParseError
	// RemoteTransportError covers failed listing or deletion requests.
	RemoteTransportError
	// PartialDeletionFailure is raised when some identifiers of a delete pass
	// were not confirmed as deleted.
	PartialDeletionFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration"
	case ParseError:
		return "parse"
	case RemoteTransportError:
		return "remote_transport"
	case PartialDeletionFailure:
		return "partial_deletion"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every operation of this package.
type Error struct {
	Kind       ErrorKind
	Op         string
	Identifier string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.Identifier != "" {
		msg += fmt.Sprintf(" (%s)", e.Identifier)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, identifier string, err error) *Error {
	return &Error{Kind: kind, Op: op, Identifier: identifier, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Rule decides what happens when an error of a given kind is raised.
type Rule struct {
	// Fatal aborts the run before anything is persisted.
	Fatal bool
	// MaxRetries is the number of extra attempts made before the error is
	// reported. Only remote operations are retried.
	MaxRetries uint64
}

// ErrorPolicy maps each error kind to its rule.
type ErrorPolicy map[ErrorKind]Rule

// DefaultErrorPolicy returns the policy used when nothing is configured:
// configuration and parse errors abort, remote errors are logged once and
// the run continues.
func DefaultErrorPolicy() ErrorPolicy {
	return ErrorPolicy{
		ConfigurationError:     {Fatal: true},
		ParseError:             {Fatal: true},
		RemoteTransportError:   {Fatal: false},
		PartialDeletionFailure: {Fatal: false},
	}
}

// Rule returns the rule for kind. Unknown kinds are fatal.
func (p ErrorPolicy) Rule(kind ErrorKind) Rule {
	if r, ok := p[kind]; ok {
		return r
	}
	return Rule{Fatal: true}
}

// IsFatal reports whether err must abort the run.
func (p ErrorPolicy) IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return p.Rule(KindOf(err)).Fatal
}

var retryInitialInterval = 500 * time.Millisecond

// retry runs op once plus up to MaxRetries more times for kind, backing off
// exponentially between attempts.
func (p ErrorPolicy) retry(ctx context.Context, kind ErrorKind, op func() error) error {
	rule := p.Rule(kind)
	if rule.MaxRetries == 0 {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, rule.MaxRetries), ctx))
}

package fault

import (
	"errors"
	"fmt"
)

// Kind represents the category of failure that occurred
type Kind int

const (
	// KindMalformedRequest indicates a bad HTTP request line or header block
	KindMalformedRequest Kind = iota
	// KindClosed indicates the peer closed the stream before sending anything
	KindClosed
	// KindValidation indicates a missing or invalid form field (user-correctable)
	KindValidation
	// KindPersistence indicates the credential record could not be written
	KindPersistence
	// KindConnectTimeout indicates a station connect attempt exceeded its deadline
	KindConnectTimeout
	// KindConnectAborted indicates a provisioning request preempted a connect attempt
	KindConnectAborted
	// KindSync indicates clock synchronization failed
	KindSync
	// KindRadio indicates the radio backend rejected an operation
	KindRadio
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindMalformedRequest:
		return "Malformed Request"
	case KindClosed:
		return "Closed"
	case KindValidation:
		return "Validation Error"
	case KindPersistence:
		return "Persistence Failure"
	case KindConnectTimeout:
		return "Connect Timeout"
	case KindConnectAborted:
		return "Connect Aborted"
	case KindSync:
		return "Sync Failure"
	case KindRadio:
		return "Radio Error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Error is the single error type produced by netmgr components
type Error struct {
	Kind      Kind   // Category of failure
	Op        string // Operation that failed (e.g. "credentials.save")
	Message   string // Human-readable message
	Err       error  // Underlying error (if any)
	Retryable bool   // Whether repeating the operation may succeed
}

// Error implements the error interface
func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// Sentinels usable with errors.Is. They match any *Error of the same kind.
var (
	ErrMalformed      = &Error{Kind: KindMalformedRequest}
	ErrClosed         = &Error{Kind: KindClosed}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrPersistence    = &Error{Kind: KindPersistence}
	ErrConnectTimeout = &Error{Kind: KindConnectTimeout}
	ErrConnectAborted = &Error{Kind: KindConnectAborted}
	ErrSync           = &Error{Kind: KindSync}
	ErrRadio          = &Error{Kind: KindRadio}
)

// NewMalformed creates a malformed-request error
func NewMalformed(message string) *Error {
	return &Error{Kind: KindMalformedRequest, Op: "httpwire.read", Message: message}
}

// NewValidation creates a validation error
func NewValidation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewPersistence creates a persistence error. These are retryable by resubmission.
func NewPersistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Message: "storage rejected the write", Err: err, Retryable: true}
}

// NewConnectTimeout creates a connect-timeout error
func NewConnectTimeout(network string) *Error {
	return &Error{
		Kind:      KindConnectTimeout,
		Op:        "radio.connect",
		Message:   fmt.Sprintf("no connection to %q before deadline", network),
		Retryable: true,
	}
}

// NewConnectAborted creates a connect-aborted error
func NewConnectAborted(network string) *Error {
	return &Error{
		Kind:      KindConnectAborted,
		Op:        "radio.connect",
		Message:   fmt.Sprintf("connect to %q preempted by provisioning request", network),
		Retryable: true,
	}
}

// NewSync creates a time-sync error
func NewSync(message string, err error) *Error {
	return &Error{Kind: KindSync, Op: "timesync", Message: message, Err: err, Retryable: true}
}

// NewRadio creates a radio backend error
func NewRadio(op string, err error) *Error {
	return &Error{Kind: KindRadio, Op: op, Message: "radio operation failed", Err: err, Retryable: true}
}

// KindOf returns the kind of err, and false if err is not a *Error
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

func isKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// IsMalformed checks if an error is a malformed-request error
func IsMalformed(err error) bool { return isKind(err, KindMalformedRequest) }

// IsClosed checks if an error reports an empty, closed stream
func IsClosed(err error) bool { return isKind(err, KindClosed) }

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// IsPersistence checks if an error is a persistence error
func IsPersistence(err error) bool { return isKind(err, KindPersistence) }

// IsConnectTimeout checks if an error is a connect timeout
func IsConnectTimeout(err error) bool { return isKind(err, KindConnectTimeout) }

// IsConnectAborted checks if an error is a connect abort
func IsConnectAborted(err error) bool { return isKind(err, KindConnectAborted) }

// IsSync checks if an error is a time-sync error
func IsSync(err error) bool { return isKind(err, KindSync) }

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// ShortMessage returns a concise message suitable for a status line or HTML page
func ShortMessage(err error) string {
	var fe *Error
	if !errors.As(err, &fe) {
		return err.Error()
	}

	switch fe.Kind {
	case KindMalformedRequest:
		return "Malformed request"
	case KindValidation:
		return fe.Message
	case KindPersistence:
		return "Save failed."
	case KindConnectTimeout:
		return "Connection timed out"
	case KindConnectAborted:
		return "Connection aborted for setup mode"
	case KindSync:
		return "Clock sync failed"
	case KindRadio:
		return "Radio error"
	default:
		return fe.Message
	}
}

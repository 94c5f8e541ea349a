package domain

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"net"
	"slices"
	"strconv"
)

// Kind discriminates the failures raised across the portlet contract.
type Kind int

const (
	// KindPortlet is the root failure, also used for opaque container-wrapped failures.
	KindPortlet Kind = iota
	KindInvalidArgument
	KindInvalidState
	KindUnsupportedEncoding
	KindIO
	KindSecurity
	KindPortletMode
	KindWindowState
	KindReadOnly
	KindValidator
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindPortlet:             "portlet failure",
	KindInvalidArgument:     "invalid argument",
	KindInvalidState:        "invalid state",
	KindUnsupportedEncoding: "unsupported encoding",
	KindIO:                  "input/output failure",
	KindSecurity:            "security failure",
	KindPortletMode:         "portlet mode not supported",
	KindWindowState:         "window state not supported",
	KindReadOnly:            "read-only preference",
	KindValidator:           "preferences validation failed",
	KindUnavailable:         "portlet unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown failure"
}

// Sentinels for errors.Is. Every *Error matches ErrPortlet and the sentinel of its Kind.
var (
	ErrPortlet             = errors.New(KindPortlet.String())
	ErrInvalidArgument     = errors.New(KindInvalidArgument.String())
	ErrInvalidState        = errors.New(KindInvalidState.String())
	ErrUnsupportedEncoding = errors.New(KindUnsupportedEncoding.String())
	ErrIO                  = errors.New(KindIO.String())
	ErrSecurity            = errors.New(KindSecurity.String())
	ErrPortletMode         = errors.New(KindPortletMode.String())
	ErrWindowState         = errors.New(KindWindowState.String())
	ErrReadOnly            = errors.New(KindReadOnly.String())
	ErrValidator           = errors.New(KindValidator.String())
	ErrUnavailable         = errors.New(KindUnavailable.String())
)

var sentinels = map[Kind]error{
	KindPortlet:             ErrPortlet,
	KindInvalidArgument:     ErrInvalidArgument,
	KindInvalidState:        ErrInvalidState,
	KindUnsupportedEncoding: ErrUnsupportedEncoding,
	KindIO:                  ErrIO,
	KindSecurity:            ErrSecurity,
	KindPortletMode:         ErrPortletMode,
	KindWindowState:         ErrWindowState,
	KindReadOnly:            ErrReadOnly,
	KindValidator:           ErrValidator,
	KindUnavailable:         ErrUnavailable,
}

// ErrPreferencesNotFound is returned by a PreferencesStore when nothing is stored under a key.
var ErrPreferencesNotFound = errors.New("preferences not found")

// permanentSeconds is reported by UnavailableSeconds for permanent unavailability.
const permanentSeconds = -1

// Error is the single failure type of the portlet contract.
// The payload fields are meaningful only for the matching Kind.
type Error struct {
	Kind    Kind
	Message string

	// Mode is the rejected mode (KindPortletMode).
	Mode PortletMode
	// State is the rejected window state (KindWindowState).
	State WindowState
	// Cause is the nested failure, if any. Only one level is kept.
	Cause error

	failedKeys []string
	seconds    int
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the nested cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches the root sentinel and the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	if target == ErrPortlet {
		return true
	}
	return sentinels[e.Kind] == target
}

// WithCause returns a copy of e carrying cause as its nested failure,
// replacing any previous cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.failedKeys = slices.Clone(e.failedKeys)
	cp.Cause = cause
	return &cp
}

// FailedKeys enumerates the preference keys that failed validation, in capture order.
func (e *Error) FailedKeys() iter.Seq[string] {
	keys := e.failedKeys
	return func(yield func(string) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

// FailedKeyList returns a copy of the failed validation keys.
func (e *Error) FailedKeyList() []string {
	return slices.Clone(e.failedKeys)
}

// IsPermanent reports whether an unavailable portlet will never recover.
func (e *Error) IsPermanent() bool {
	return e.Kind == KindUnavailable && e.seconds == permanentSeconds
}

// UnavailableSeconds returns the estimated downtime, or -1 when permanent.
func (e *Error) UnavailableSeconds() int {
	if e.Kind != KindUnavailable {
		return 0
	}
	return e.seconds
}

// NewPortletError creates a root failure with an optional cause.
func NewPortletError(msg string, cause error) *Error {
	return &Error{Kind: KindPortlet, Message: msg, Cause: cause}
}

// NewInvalidArgument reports a violated caller precondition.
func NewInvalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

// NewInvalidState reports an operation called out of its allowed order.
func NewInvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

// NewUnsupportedEncoding reports an unknown or undecodable character set.
func NewUnsupportedEncoding(encoding string, cause error) *Error {
	return &Error{Kind: KindUnsupportedEncoding, Message: "unsupported encoding " + strconv.Quote(encoding), Cause: cause}
}

// NewIOError wraps a transport-level failure.
func NewIOError(msg string, cause error) *Error {
	return &Error{Kind: KindIO, Message: msg, Cause: cause}
}

// NewSecurityError signals an authorization or policy rejection.
func NewSecurityError(msg string) *Error {
	return &Error{Kind: KindSecurity, Message: msg}
}

// NewModeError reports that mode cannot be used.
func NewModeError(msg string, mode PortletMode) *Error {
	return &Error{Kind: KindPortletMode, Message: msg, Mode: mode}
}

// NewStateError reports that state cannot be used.
func NewStateError(msg string, state WindowState) *Error {
	return &Error{Kind: KindWindowState, Message: msg, State: state}
}

// NewReadOnlyError reports an attempted mutation of a read-only preference.
func NewReadOnlyError(msg string) *Error {
	return &Error{Kind: KindReadOnly, Message: msg}
}

// NewValidatorError rejects a preference set. failedKeys is copied; nil yields an empty enumeration.
func NewValidatorError(msg string, failedKeys []string) *Error {
	return &Error{Kind: KindValidator, Message: msg, failedKeys: slices.Clone(failedKeys)}
}

// NewUnavailable reports that a portlet cannot serve requests.
// seconds <= 0 marks the unavailability as permanent.
func NewUnavailable(msg string, seconds int) *Error {
	if seconds <= 0 {
		seconds = permanentSeconds
	}
	return &Error{Kind: KindUnavailable, Message: msg, seconds: seconds}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsIOError reports whether err is a plain input/output failure that must
// be propagated to the caller without wrapping.
func IsIOError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrIO) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrShortWrite) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

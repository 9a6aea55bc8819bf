package audio

import "fmt"

// Errno is the scheduler's status-code type. Every command handler returns
// one of these (or nil) instead of the negative-errno convention the
// reference implementation uses over its wire protocol; Code() recovers
// that convention for callers that need the raw integer (e.g. the
// command-channel response).
type Errno struct {
	code int32
	msg  string
}

func (e *Errno) Error() string { return e.msg }

// Code returns the negative integer status code associated with this
// error, matching the reference protocol's return-value convention.
func (e *Errno) Code() int32 { return e.code }

func newErrno(code int32, msg string) *Errno {
	return &Errno{code: code, msg: msg}
}

var (
	// ErrInvalid: device or stream unknown to the relevant list, or a
	// malformed request. Wire code -EINVAL.
	ErrInvalid = newErrno(-22, "invalid argument")
	// ErrExist: ADD_OPEN_DEV on a device already registered. Wire code
	// -EEXIST.
	ErrExist = newErrno(-17, "already exists")
	// ErrPipe: fatal I/O failure on a command pipe (EOF on read, or a
	// write that can't complete). Wire code -EPIPE.
	ErrPipe = newErrno(-32, "broken pipe")
	// ErrNoMem: message exceeds MaxMessageSize, or allocation failure
	// while creating a dev-stream during attach. Wire code -ENOMEM.
	ErrNoMem = newErrno(-12, "cannot allocate memory")
)

// CodeOf extracts the wire status code for any error returned by a command
// handler: an *Errno keeps its code, any other error maps to ErrInvalid's
// code (all handler-level errors in this package are *Errno; this is a
// defensive default for callers/tests that wrap errors with fmt.Errorf).
func CodeOf(err error) int32 {
	if err == nil {
		return 0
	}
	var errno *Errno
	if e, ok := err.(*Errno); ok {
		errno = e
	} else {
		return ErrInvalid.code
	}
	return errno.code
}

func wrapf(base *Errno, format string, args ...interface{}) *Errno {
	return newErrno(base.code, fmt.Sprintf("%s: %s", base.msg, fmt.Sprintf(format, args...)))
}

package gateway

import (
	"errors"
	"fmt"
)

// FailureKind classifies a gateway failure so the caller can decide between
// queueing (connectivity) and surfacing an error (everything else).
type FailureKind int

const (
	// KindConnectivity means the request never reached the server.
	KindConnectivity FailureKind = iota
	// KindAuth means the server rejected the API key.
	KindAuth
	// KindValidation means the server rejected the payload.
	KindValidation
	// KindNotFound means the target entity does not exist remotely.
	KindNotFound
	// KindServer means the server failed while handling the request.
	KindServer
)

func (k FailureKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure is a typed gateway error.
type Failure struct {
	Kind   FailureKind
	Op     string // e.g. "create set"
	Status int    // HTTP status, 0 for connectivity failures
	Err    error
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", f.Op, f.Kind, f.Status, f.Err)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsConnectivity reports whether err is a gateway failure caused by the
// server being unreachable, as opposed to the server rejecting the request.
func IsConnectivity(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == KindConnectivity
}

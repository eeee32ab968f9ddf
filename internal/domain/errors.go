package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAgent is returned when an instance was never fully provisioned
	ErrNoAgent = errors.New("instance has no agent descriptor")
	// ErrNotReady is returned when an instance did not become ready in time
	ErrNotReady = errors.New("instance not ready")
)

// ConfigurationError reports invalid input that cannot be recovered at runtime
type ConfigurationError struct {
	Subject string // Offending instance, artifact or setting
	Reason  string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Subject, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// CapacityError reports a ready instance count that does not match the shards
type CapacityError struct {
	Required int
	Ready    int
}

func (e *CapacityError) Error() string {
	if e.Ready > e.Required {
		return fmt.Sprintf("instance count mismatch: required %d but %d ready", e.Required, e.Ready)
	}
	return fmt.Sprintf("not enough instances: required %d but %d ready (short by %d)", e.Required, e.Ready, e.Shortfall())
}

// Shortfall returns the number of missing instances
func (e *CapacityError) Shortfall() int {
	return e.Required - e.Ready
}

// RemoteOperationError wraps a failed call to the device farm or a device channel
type RemoteOperationError struct {
	Op     string // e.g. "list instances", "upload"
	Target string // Instance id, project id or remote path
	Err    error
}

func (e *RemoteOperationError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *RemoteOperationError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteOperationError, keeping nil as nil
func Remote(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteOperationError{Op: op, Target: target, Err: err}
}

package appctl

import "fmt"

// TransferFailedError wraps a transport-layer failure encountered
// while staging an .ipk for install.
type TransferFailedError struct {
	Err error
}

func (e *TransferFailedError) Error() string { return fmt.Sprintf("transfer failed: %v", e.Err) }
func (e *TransferFailedError) Unwrap() error { return e.Err }

// LunaFailedError wraps a Luna-bus call/subscription failure.
type LunaFailedError struct {
	Err error
}

func (e *LunaFailedError) Error() string { return fmt.Sprintf("luna request failed: %v", e.Err) }
func (e *LunaFailedError) Unwrap() error { return e.Err }

// RemoteError reports a failure the device itself reported (a
// terminal FAILED state, or returnValue:false with an error code).
type RemoteError struct {
	Code   int
	Reason string
}

func (e *RemoteError) Error() string { return fmt.Sprintf("%s (code %d)", e.Reason, e.Code) }

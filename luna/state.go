package luna

import (
	"regexp"
	"strings"
)

var (
	failedStateRE  = regexp.MustCompile(`(?i)FAILED`)
	successStateRE = regexp.MustCompile(`(?i)^SUCCESS`)
)

// installingPrefix is stripped from a progress state string before it
// reaches the caller's progress callback.
const installingPrefix = "installing : "

// StateKind discriminates the outcome of ProjectState.
type StateKind int

const (
	// StateProgress is a non-terminal event; Progress carries the
	// (possibly prefix-stripped) state string.
	StateProgress StateKind = iota
	// StateSuccess is a terminal success; PackageID carries the
	// installed/removed package id (defaulting to "").
	StateSuccess
	// StateFailure is a terminal error; ErrorCode/Reason carry the
	// service-reported failure details.
	StateFailure
)

// Details is the "details" object nested in install/remove
// subscription events.
type Details struct {
	State     string `json:"state"`
	PackageID string `json:"packageId"`
	ErrorCode int    `json:"errorCode"`
	Reason    string `json:"reason"`
}

// StateResult is the outcome of projecting one Details value.
type StateResult struct {
	Kind      StateKind
	Progress  string
	PackageID string
	ErrorCode int
	Reason    string
}

// ProjectState implements the generic install/remove state machine:
// a state matching /FAILED/i is a terminal failure, a state matching
// /^SUCCESS/i or the caller-supplied terminalRE is a terminal success,
// and anything else is a progress event. terminalRE may be nil.
func ProjectState(d Details, terminalRE *regexp.Regexp) StateResult {
	switch {
	case failedStateRE.MatchString(d.State):
		errorCode := d.ErrorCode
		reason := d.Reason
		if reason == "" {
			reason = "unknown error"
		}
		return StateResult{Kind: StateFailure, ErrorCode: errorCode, Reason: reason}
	case successStateRE.MatchString(d.State) || (terminalRE != nil && terminalRE.MatchString(d.State)):
		return StateResult{Kind: StateSuccess, PackageID: d.PackageID}
	default:
		progress := strings.TrimPrefix(d.State, installingPrefix)
		return StateResult{Kind: StateProgress, Progress: progress}
	}
}

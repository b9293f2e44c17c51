package refresh

import (
	"errors"
	"fmt"
)

// Reason classifies why a poll produced no snapshot.
type Reason string

const (
	ReasonNetwork Reason = "network"
	ReasonStatus  Reason = "status"
	ReasonPayload Reason = "payload"
)

// PollFailure is the single outcome for "this poll did not produce a usable
// snapshot". It is recovered inside the cycle and only reported through
// Result and the observer.
type PollFailure struct {
	Reason     Reason
	StatusCode int // set for ReasonStatus
	Err        error
}

func (e *PollFailure) Error() string {
	if e.Reason == ReasonStatus {
		return fmt.Sprintf("poll failed (%s %d): %v", e.Reason, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("poll failed (%s): %v", e.Reason, e.Err)
}

func (e *PollFailure) Unwrap() error { return e.Err }

func networkFailure(err error) *PollFailure {
	return &PollFailure{Reason: ReasonNetwork, Err: err}
}

func statusFailure(code int, err error) *PollFailure {
	return &PollFailure{Reason: ReasonStatus, StatusCode: code, Err: err}
}

func payloadFailure(err error) *PollFailure {
	return &PollFailure{Reason: ReasonPayload, Err: err}
}

// asPollFailure keeps fetcher-supplied failures and files anything else
// under ReasonNetwork.
func asPollFailure(err error) *PollFailure {
	var pf *PollFailure
	if errors.As(err, &pf) {
		return pf
	}
	return networkFailure(err)
}

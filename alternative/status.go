package alternative

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of an alternative.
type Status int

const (
	Pending Status = iota
	Progressing
	Complete
	TentativeComplete
	Confirmed
	Aggregated
	Invalidated
	Abandoned
)

var statusNames = [...]string{
	Pending:           "pending",
	Progressing:       "progressing",
	Complete:          "complete",
	TentativeComplete: "tentative_complete",
	Confirmed:         "confirmed",
	Aggregated:        "aggregated",
	Invalidated:       "invalidated",
	Abandoned:         "abandoned",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrIllegalTransition is returned for a transition the lifecycle forbids.
var ErrIllegalTransition = errors.New("illegal status transition")

var transitions = map[Status][]Status{
	Pending:           {Progressing, Complete, TentativeComplete, Invalidated, Abandoned},
	Progressing:       {Complete, TentativeComplete, Invalidated, Abandoned},
	Complete:          {Confirmed, Abandoned},
	TentativeComplete: {Confirmed, Invalidated, Abandoned},
	Confirmed:         {Aggregated},
	Invalidated:       {Abandoned},
}

// CanTransition reports whether the lifecycle allows moving from s to to.
func (s Status) CanTransition(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Finished reports whether s is complete or tentatively complete.
func (s Status) Finished() bool {
	return s == Complete || s == TentativeComplete
}

// Advanceable reports whether an alternative in s may consume more tokens.
func (s Status) Advanceable() bool {
	switch s {
	case Pending, Progressing, Complete, TentativeComplete:
		return true
	}
	return false
}

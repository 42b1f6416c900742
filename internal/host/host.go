// Package host describes what the interface board needs from the machine host:
// current state, build progress, stop command and input activity notifications.
package host

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

type State int32

const (
	StateOther State = iota
	StateBuilding
	StateBuildingFromSD
	StateBuildingOnboard
	StateHeatShutdown
)

var stateNames = map[State]string{
	StateOther:           "other",
	StateBuilding:        "building",
	StateBuildingFromSD:  "building_sd",
	StateBuildingOnboard: "building_onboard",
	StateHeatShutdown:    "heat_shutdown",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Normalize maps unknown values to StateOther.
func (s State) Normalize() State {
	if _, ok := stateNames[s]; ok {
		return s
	}
	return StateOther
}

func (s State) IsBuilding() bool {
	switch s {
	case StateBuilding, StateBuildingFromSD, StateBuildingOnboard:
		return true
	}
	return false
}

func ParseState(s string) (State, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, v := range stateNames {
		if v == s {
			return k, nil
		}
	}
	return StateOther, errors.NotFoundf("host state=%s", s)
}

// Host is the machine side as seen by the board.
type Host interface {
	State() State
	// StopBuild requests abort of current build/job.
	StopBuild()
	// ResetUserInputTimeout tells host that user is active.
	ResetUserInputTimeout()
}

// CommandQueue reports whether host command execution waits for something, e.g. user confirmation.
type CommandQueue interface {
	IsWaiting() bool
}

// Progress is optional Host capability.
type Progress interface {
	// BuildPercentage returns false when unknown.
	BuildPercentage() (uint8, bool)
}

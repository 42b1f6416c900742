package board

import (
	"github.com/temoto/panel/internal/host"
)

// monitorBuild shows build screen while host builds
// and unwinds the stack when build is over.
func (self *Board) monitorBuild() {
	state := self.deps.Host.State().Normalize()
	switch {
	case state.IsBuilding():
		if self.building {
			return
		}
		self.onboardBuild = state == host.StateBuildingOnboard
		build := self.deps.Build
		if self.stack.Current().ScreenWaiting() || self.commandsWaiting() {
			// transient screen on top, build screen is revealed when it is dismissed
			if !self.stack.PushBehindCurrent(build) {
				self.log.Errorf("build screen not inserted, stack full depth=%d", self.stack.Depth())
			}
		} else {
			self.stack.Push(build)
		}
		self.building = true
		self.log.Debugf("board build begin state=%s onboard=%t depth=%d", state, self.onboardBuild, self.stack.Depth())

	case state == host.StateHeatShutdown:
		// hold whatever is on display

	default:
		if !self.building || self.stack.Current().ScreenWaiting() {
			return
		}
		// onboard scripts are started from utilities menu, one level above root
		target := 0
		if self.onboardBuild {
			target = 1
		}
		self.stack.PopTo(target)
		self.building = false
		self.onboardBuild = false
		self.log.Debugf("board build end state=%s depth=%d", state, self.stack.Depth())
	}
}

func (self *Board) commandsWaiting() bool {
	if self.deps.Commands == nil {
		return false
	}
	return self.deps.Commands.IsWaiting()
}

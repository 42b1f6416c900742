package board

import (
	"github.com/temoto/panel/internal/button"
)

func (self *Board) routeButtons() {
	if self.locked.Load() {
		if !self.config.DiagRespectsLock {
			if b, ok := self.deps.Buttons.GetButton(); ok && b == button.ButtonEgg {
				self.pushDiag()
			}
		}
		return
	}

	if b, ok := self.deps.Buttons.GetButton(); ok {
		if !self.dispatch(b) {
			return
		}
	}

	// continuous press: forget held button so scan latches it again
	if self.repeat.HasElapsed() {
		self.deps.Buttons.ClearButtonPress()
		self.repeat.Clear()
	}

	cur := self.stack.Current()
	cur.SetBuildPercentage(self.buildPercentage)
	cur.Update(self.deps.Display, false)
}

// dispatch returns false when rest of tick must be skipped.
func (self *Board) dispatch(b button.Button) bool {
	defer self.deps.Host.ResetUserInputTimeout()

	cur := self.stack.Current()
	switch {
	case b == button.ButtonReset:
		self.log.Debugf("board reset button, stop build")
		self.deps.Host.StopBuild()
		return false

	case self.waitingMask.Has(b) && !cur.IsCancelScreen():
		self.log.Debugf("board awaited button=%s mask=%s", b, self.waitingMask)
		self.waitingMask = button.MaskNone

	case b == button.ButtonEgg:
		self.pushDiag()

	default:
		cur.NotifyButtonPressed(b)
		if cur.ContinuousButtons() {
			self.repeat.Start(self.config.ButtonRepeat)
		}
	}
	return true
}

func (self *Board) pushDiag() {
	if self.deps.Diag == nil {
		self.log.Debugf("board diag screen not configured")
		return
	}
	self.PushScreen(self.deps.Diag)
}

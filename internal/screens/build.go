package screens

import (
	"fmt"

	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/host"
	"github.com/temoto/panel/internal/screen"
)

// Build shows progress while host is building.
// Center asks to cancel the build.
type Build struct {
	screen.Base
	frame
	nav     screen.Navigator
	format  string
	unknown string
	host    host.Host
	confirm screen.Screen
	percent uint8
}

func NewBuild(width, height uint8, format, unknown string, h host.Host, confirm screen.Screen) *Build {
	return &Build{
		frame:   newFrame(width, height),
		format:  format,
		unknown: unknown,
		host:    h,
		confirm: confirm,
		percent: 101,
	}
}

func (self *Build) Reset() { self.dirty = true }

func (self *Build) SetBuildPercentage(pct uint8) { self.percent = pct }

func (self *Build) Update(d screen.Surface, force bool) {
	if self.percent <= 100 {
		self.set(0, fmt.Sprintf(self.format, self.percent))
		self.set(2, progressBar(int(self.width), self.percent))
	} else {
		self.set(0, self.unknown)
		self.set(2, "")
	}
	self.set(1, self.host.State().String())
	self.draw(d, force)
}

func (self *Build) NotifyButtonPressed(b button.Button) {
	if b == button.ButtonCenter && self.confirm != nil {
		self.nav.PushScreen(self.confirm)
	}
}

func progressBar(width int, percent uint8) string {
	if width <= 0 {
		return ""
	}
	filled := width * int(percent) / 100
	buf := make([]byte, width)
	for i := range buf {
		if i < filled {
			buf[i] = '#'
		} else {
			buf[i] = '.'
		}
	}
	return string(buf)
}

// Confirm is a yes/no question. It is a cancel screen:
// it gets buttons even while board waits for a button mask.
type Confirm struct {
	screen.Base
	frame
	nav      screen.Navigator
	question string
	yes, no  string
	accept   func()
	choice   bool
}

func NewConfirm(width, height uint8, question, yes, no string, accept func()) *Confirm {
	return &Confirm{
		frame:    newFrame(width, height),
		question: question,
		yes:      yes,
		no:       no,
		accept:   accept,
	}
}

func (self *Confirm) Reset() {
	self.choice = false
	self.dirty = true
}

func (self *Confirm) IsCancelScreen() bool { return true }

func (self *Confirm) Update(d screen.Surface, force bool) {
	self.set(0, self.question)
	y, n := " "+self.yes, " "+self.no
	if self.choice {
		y = ">" + self.yes
	} else {
		n = ">" + self.no
	}
	self.set(1, n)
	self.set(2, y)
	self.draw(d, force)
}

func (self *Confirm) NotifyButtonPressed(b button.Button) {
	switch b {
	case button.ButtonUp, button.ButtonDown:
		self.choice = !self.choice
		self.dirty = true
	case button.ButtonLeft:
		self.nav.PopScreen()
	case button.ButtonCenter:
		if self.choice && self.accept != nil {
			self.accept()
		}
		self.nav.PopScreen()
	}
}

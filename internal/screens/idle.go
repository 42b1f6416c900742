package screens

import (
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/host"
	"github.com/temoto/panel/internal/screen"
)

// Idle is the root screen: greeting and host state. Center opens utilities menu.
type Idle struct {
	screen.Base
	frame
	nav   screen.Navigator
	title string
	host  host.Host
	menu  screen.Screen
}

func NewIdle(width, height uint8, title string, h host.Host, menu screen.Screen) *Idle {
	return &Idle{frame: newFrame(width, height), title: title, host: h, menu: menu}
}

func (self *Idle) Reset() { self.dirty = true }

func (self *Idle) Update(d screen.Surface, force bool) {
	self.set(0, self.title)
	self.set(1, self.host.State().String())
	self.draw(d, force)
}

func (self *Idle) NotifyButtonPressed(b button.Button) {
	if b == button.ButtonCenter && self.menu != nil {
		self.nav.PushScreen(self.menu)
	}
}

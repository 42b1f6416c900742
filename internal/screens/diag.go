package screens

import (
	"time"

	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/screen"
)

// DiagFunc returns diagnostic text lines, called every diag screen update.
type DiagFunc func() []string

// Diag is the hidden diagnostic screen opened by button chord.
type Diag struct {
	screen.Base
	frame
	nav    screen.Navigator
	title  string
	source DiagFunc
}

func NewDiag(width, height uint8, title string, f DiagFunc) *Diag {
	return &Diag{frame: newFrame(width, height), title: title, source: f}
}

func (self *Diag) Reset() { self.dirty = true }

func (self *Diag) UpdateRate() time.Duration { return 500 * time.Millisecond }

func (self *Diag) Update(d screen.Surface, force bool) {
	self.set(0, self.title)
	var ls []string
	if self.source != nil {
		ls = self.source()
	}
	for i := 1; i < len(self.lines); i++ {
		s := ""
		if i-1 < len(ls) {
			s = ls[i-1]
		}
		self.set(i, s)
	}
	self.draw(d, force)
}

func (self *Diag) NotifyButtonPressed(b button.Button) {
	switch b {
	case button.ButtonLeft, button.ButtonCenter:
		self.nav.PopScreen()
	}
}

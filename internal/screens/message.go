package screens

import (
	"time"

	"github.com/temoto/atomic_clock"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/screen"
)

// Message is transient text. While shown it reports ScreenWaiting,
// so build screen is inserted below it. Any button or timeout dismisses it.
type Message struct {
	screen.Base
	frame
	nav     screen.Navigator
	col     uint8
	row     uint8
	timeout time.Duration
	until   atomic_clock.Clock
	now     func() int64
}

var clockZero atomic_clock.Clock

func NewMessage(width, height uint8, timeout time.Duration) *Message {
	return &Message{frame: newFrame(width, height), timeout: timeout, now: atomic_clock.Source}
}

// SetClock replaces time source, nanoseconds.
func (self *Message) SetClock(now func() int64) { self.now = now }

func (self *Message) ClearMessage() {
	self.clear()
	self.col, self.row = 0, 0
}

func (self *Message) SetXY(col, row uint8) { self.col, self.row = col, row }

// AddMessage writes text at cursor. Newline moves to next row.
func (self *Message) AddMessage(text string) {
	for _, r := range text {
		if r == '\n' {
			self.col = 0
			self.row++
			continue
		}
		if int(self.row) >= len(self.lines) {
			return
		}
		if self.col >= self.width {
			self.col = 0
			self.row++
			if int(self.row) >= len(self.lines) {
				return
			}
		}
		line := []rune(self.lines[self.row])
		for len(line) <= int(self.col) {
			line = append(line, ' ')
		}
		line[self.col] = r
		self.lines[self.row] = string(line)
		self.col++
		self.dirty = true
	}
}

// Text returns message rows as written.
func (self *Message) Text() []string {
	out := make([]string, len(self.lines))
	copy(out, self.lines)
	return out
}

func (self *Message) Reset() {
	self.dirty = true
	if self.timeout > 0 {
		self.until.Set(self.now() + int64(self.timeout))
	} else {
		self.until.Set(0)
	}
}

func (self *Message) ScreenWaiting() bool { return true }

func (self *Message) expired() bool {
	return !self.until.IsZero() && self.now() >= int64(self.until.Sub(&clockZero))
}

func (self *Message) Update(d screen.Surface, force bool) {
	if self.expired() {
		self.until.Set(0)
		self.nav.PopScreen()
		return
	}
	self.draw(d, force)
}

func (self *Message) NotifyButtonPressed(button.Button) {
	self.until.Set(0)
	self.nav.PopScreen()
}

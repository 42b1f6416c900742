package screens

import (
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/screen"
)

type MenuItem struct {
	Title string
	// Message is shown on selection, empty means diagnostic screen.
	Message string
}

// Menu is a scrolling list. Up/Down move cursor with repeat while held,
// Center selects, Left goes back.
type Menu struct {
	screen.Base
	frame
	nav     screen.Navigator
	title   string
	items   []MenuItem
	cursor  int
	message *Message
	diag    screen.Screen
}

func NewMenu(width, height uint8, title string, items []MenuItem, message *Message, diag screen.Screen) *Menu {
	return &Menu{
		frame:   newFrame(width, height),
		title:   title,
		items:   items,
		message: message,
		diag:    diag,
	}
}

func (self *Menu) Reset() {
	self.cursor = 0
	self.dirty = true
}

func (self *Menu) ContinuousButtons() bool { return true }

func (self *Menu) Cursor() int { return self.cursor }

func (self *Menu) Update(d screen.Surface, force bool) {
	self.set(0, self.title)
	rows := len(self.lines) - 1
	// scroll window keeps cursor visible
	first := 0
	if rows > 0 && self.cursor >= rows {
		first = self.cursor - rows + 1
	}
	for r := 0; r < rows; r++ {
		i := first + r
		if i >= len(self.items) {
			self.set(r+1, "")
			continue
		}
		mark := " "
		if i == self.cursor {
			mark = ">"
		}
		self.set(r+1, mark+self.items[i].Title)
	}
	self.draw(d, force)
}

func (self *Menu) NotifyButtonPressed(b button.Button) {
	switch b {
	case button.ButtonUp:
		self.cursor = addWrap(self.cursor, len(self.items), -1)
	case button.ButtonDown:
		self.cursor = addWrap(self.cursor, len(self.items), +1)
	case button.ButtonLeft:
		self.nav.PopScreen()
	case button.ButtonCenter, button.ButtonRight:
		if self.cursor >= len(self.items) {
			return
		}
		item := self.items[self.cursor]
		if item.Message == "" {
			if self.diag != nil {
				self.nav.PushScreen(self.diag)
			}
			return
		}
		self.message.ClearMessage()
		self.message.SetXY(0, 0)
		self.message.AddMessage(item.Message)
		self.nav.PushScreen(self.message)
	}
}

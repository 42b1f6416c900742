// Package screens is the concrete set of interface board screens.
// Screens are created once, bound to board navigation and reused
// for every push.
package screens

import (
	"time"
	"unicode/utf8"

	"github.com/temoto/panel/internal/host"
	"github.com/temoto/panel/internal/screen"
)

type Config struct {
	Width  uint8
	Height uint8

	MsgIdle         string
	MsgMenu         string
	MsgBuilding     string
	MsgBuildUnknown string
	MsgCancel       string
	MsgYes          string
	MsgNo           string
	MsgDiag         string
	MessageTimeout  time.Duration

	Items []MenuItem
}

func (self *Config) setDefaults() {
	if self.Width == 0 {
		self.Width = 20
	}
	if self.Height == 0 {
		self.Height = 4
	}
	if self.MsgIdle == "" {
		self.MsgIdle = "ready"
	}
	if self.MsgMenu == "" {
		self.MsgMenu = "utilities"
	}
	if self.MsgBuilding == "" {
		self.MsgBuilding = "building %d%%"
	}
	if self.MsgBuildUnknown == "" {
		self.MsgBuildUnknown = "building"
	}
	if self.MsgCancel == "" {
		self.MsgCancel = "cancel build?"
	}
	if self.MsgYes == "" {
		self.MsgYes = "yes"
	}
	if self.MsgNo == "" {
		self.MsgNo = "no"
	}
	if self.MsgDiag == "" {
		self.MsgDiag = "diag"
	}
}

// Set is every screen board needs plus their internal neighbours.
type Set struct {
	Main    *Idle
	Menu    *Menu
	Build   *Build
	Confirm *Confirm
	Message *Message
	Diag    *Diag
}

func NewSet(config Config, h host.Host, diag DiagFunc) *Set {
	config.setDefaults()
	set := &Set{}
	set.Message = NewMessage(config.Width, config.Height, config.MessageTimeout)
	set.Diag = NewDiag(config.Width, config.Height, config.MsgDiag, diag)
	set.Menu = NewMenu(config.Width, config.Height, config.MsgMenu, config.Items, set.Message, set.Diag)
	set.Main = NewIdle(config.Width, config.Height, config.MsgIdle, h, set.Menu)
	set.Confirm = NewConfirm(config.Width, config.Height, config.MsgCancel, config.MsgYes, config.MsgNo, h.StopBuild)
	set.Build = NewBuild(config.Width, config.Height, config.MsgBuilding, config.MsgBuildUnknown, h, set.Confirm)
	return set
}

// Bind gives every screen access to navigation. Call before first push.
func (self *Set) Bind(nav screen.Navigator) {
	self.Main.nav = nav
	self.Menu.nav = nav
	self.Build.nav = nav
	self.Confirm.nav = nav
	self.Message.nav = nav
	self.Diag.nav = nav
}

// frame is the common text buffer of a screen.
type frame struct {
	width uint8
	lines []string
	dirty bool
}

func newFrame(width, height uint8) frame {
	return frame{width: width, lines: make([]string, height), dirty: true}
}

func (self *frame) set(row int, s string) {
	if row < 0 || row >= len(self.lines) {
		return
	}
	if self.lines[row] != s {
		self.lines[row] = s
		self.dirty = true
	}
}

func (self *frame) clear() {
	for i := range self.lines {
		self.lines[i] = ""
	}
	self.dirty = true
}

func (self *frame) draw(d screen.Surface, force bool) {
	if !force && !self.dirty {
		return
	}
	for i, l := range self.lines {
		d.SetCursor(0, uint8(i))
		d.WriteString(fit(l, self.width))
	}
	self.dirty = false
}

// fit pads or cuts s to exactly width runes.
func fit(s string, width uint8) string {
	n := utf8.RuneCountInString(s)
	if n == int(width) {
		return s
	}
	if n > int(width) {
		rs := []rune(s)
		return string(rs[:width])
	}
	buf := make([]byte, 0, len(s)+int(width)-n)
	buf = append(buf, s...)
	for i := n; i < int(width); i++ {
		buf = append(buf, ' ')
	}
	return string(buf)
}

func addWrap(current, max int, delta int) int {
	if max <= 0 {
		return 0
	}
	return (current + max + delta) % max
}

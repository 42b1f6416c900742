// Package input turns raw key events into panel button presses.
//
// Source goroutine reports key up/down into Array.
// Scan (interrupt context) edge-detects newly pressed buttons into the single slot mailbox.
// Tick context takes the press with GetButton.
package input

import (
	"fmt"
	"io"
	"sort"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/log2"
	"go.uber.org/atomic"
)

type Event struct {
	Source string
	Code   uint16
	Down   bool
}

type Source interface {
	Read() (Event, error)
	Close() error
	String() string
}

// Array is the button array state shared by source, scan and tick.
type Array struct {
	held     atomic.Uint32
	previous atomic.Uint32
	box      button.Mailbox
	egg      button.Mask
	log      *log2.Log
}

// NewArray with egg chord, buttons that together produce ButtonEgg. MaskNone disables chord.
func NewArray(log *log2.Log, egg button.Mask) *Array {
	return &Array{log: log, egg: egg}
}

func (self *Array) Set(b button.Button, down bool) {
	if !b.Valid() {
		return
	}
	m := uint32(b.Mask())
	for {
		old := self.held.Load()
		next := old &^ m
		if down {
			next = old | m
		}
		if self.held.CAS(old, next) {
			return
		}
	}
}

func (self *Array) Press(b button.Button)   { self.Set(b, true) }
func (self *Array) Release(b button.Button) { self.Set(b, false) }

func (self *Array) Held() button.Mask { return button.Mask(self.held.Load()) }

// Scan latches one newly pressed button. Held buttons are reported once
// until released or ClearButtonPress.
func (self *Array) Scan() {
	held := self.held.Load()
	newly := held &^ self.previous.Swap(held)
	if newly == 0 {
		return
	}
	egg := uint32(self.egg)
	if egg != 0 && held&egg == egg && newly&egg != 0 {
		self.box.Put(button.ButtonEgg)
		return
	}
	for b := button.Button(0); int(b) < button.Count; b++ {
		if newly&uint32(b.Mask()) != 0 {
			self.box.Put(b)
			return
		}
	}
}

func (self *Array) GetButton() (button.Button, bool) { return self.box.Take() }

// ClearButtonPress forgets reported buttons, still held ones are latched again on next Scan.
func (self *Array) ClearButtonPress() { self.previous.Store(0) }

// Keymap is key code to button.
type Keymap map[uint16]button.Button

// linux input-event-codes.h
const (
	keyEsc   = 1
	keyEnter = 28
	keyUp    = 103
	keyLeft  = 105
	keyRight = 106
	keyDown  = 108
)

func DefaultKeymap() Keymap {
	return Keymap{
		keyEnter: button.ButtonCenter,
		keyRight: button.ButtonRight,
		keyLeft:  button.ButtonLeft,
		keyDown:  button.ButtonDown,
		keyUp:    button.ButtonUp,
		keyEsc:   button.ButtonReset,
	}
}

// ParseKeymap from config, button name to key code.
// Empty config means DefaultKeymap.
func ParseKeymap(config map[string]int) (Keymap, error) {
	if len(config) == 0 {
		return DefaultKeymap(), nil
	}
	km := make(Keymap, len(config))
	names := make([]string, 0, len(config))
	for name := range config {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := button.Parse(name)
		if err != nil {
			return nil, errors.Annotate(err, "keymap")
		}
		code := config[name]
		if code <= 0 || code > 0xffff {
			return nil, errors.NotValidf("keymap %s code=%d", name, code)
		}
		if prev, ok := km[uint16(code)]; ok {
			return nil, errors.NotValidf("keymap code=%d used by %s and %s", code, prev, b)
		}
		km[uint16(code)] = b
	}
	return km, nil
}

func (self Keymap) String() string {
	codes := make([]int, 0, len(self))
	for c := range self {
		codes = append(codes, int(c))
	}
	sort.Ints(codes)
	s := ""
	for i, c := range codes {
		if i != 0 {
			s += " "
		}
		s += fmt.Sprintf("%d=%s", c, self[uint16(c)])
	}
	return s
}

// Run feeds source events into array until stopped or source fails.
func (self *Array) Run(a *alive.Alive, source Source, keymap Keymap) error {
	if !a.Add(1) {
		return nil
	}
	defer a.Done()
	tag := source.String()
	go func() {
		<-a.StopChan()
		_ = source.Close()
	}()
	for {
		e, err := source.Read()
		if err != nil {
			if !a.IsRunning() || errors.Cause(err) == io.EOF {
				return nil
			}
			return errors.Annotatef(err, "input source=%s", tag)
		}
		b, ok := keymap[e.Code]
		if !ok {
			self.log.Debugf("input source=%s unmapped code=%d", tag, e.Code)
			continue
		}
		self.Set(b, e.Down)
	}
}

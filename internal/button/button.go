// Package button defines interface board button identifiers,
// wait masks and the scan-to-tick handoff primitives.
package button

import (
	"fmt"

	"github.com/juju/errors"
)

type Button uint8

const (
	ButtonCenter Button = iota
	ButtonRight
	ButtonLeft
	ButtonDown
	ButtonUp
	ButtonReset
	// ButtonEgg is not a physical button, scanner reports it for the diagnostic chord.
	ButtonEgg

	Count = int(ButtonEgg) + 1
)

var names = [Count]string{"center", "right", "left", "down", "up", "reset", "egg"}

func (b Button) String() string {
	if int(b) < Count {
		return names[b]
	}
	return fmt.Sprintf("Button(%d)", uint8(b))
}

func (b Button) Valid() bool { return int(b) < Count }

// Mask returns wait mask bit for b.
func (b Button) Mask() Mask { return Mask(1) << b }

// Parse accepts names as printed by String().
func Parse(s string) (Button, error) {
	for i, n := range names {
		if n == s {
			return Button(i), nil
		}
	}
	return 0, errors.NotFoundf("button=%s", s)
}

// Mask is a set of buttons, zero means empty.
type Mask uint16

const (
	MaskNone   Mask = 0
	MaskCenter Mask = 1 << ButtonCenter
	MaskRight  Mask = 1 << ButtonRight
	MaskLeft   Mask = 1 << ButtonLeft
	MaskDown   Mask = 1 << ButtonDown
	MaskUp     Mask = 1 << ButtonUp
	MaskReset  Mask = 1 << ButtonReset
)

func MaskOf(bs ...Button) Mask {
	m := MaskNone
	for _, b := range bs {
		m |= b.Mask()
	}
	return m
}

func (m Mask) Has(b Button) bool { return m&b.Mask() != 0 }

func (m Mask) String() string {
	if m == MaskNone {
		return "none"
	}
	s := ""
	for i := 0; i < Count; i++ {
		if m.Has(Button(i)) {
			if s != "" {
				s += "+"
			}
			s += Button(i).String()
		}
	}
	return s
}

// Package screen holds the capability contract of interface board screens
// and the bounded stack deciding which one owns the display and buttons.
package screen

import (
	"time"

	"github.com/temoto/panel/internal/button"
)

const DefaultUpdateRate = 50 * time.Millisecond

// Surface is the character display as seen by screens.
type Surface interface {
	Begin(cols, rows uint8)
	Clear()
	Home()
	SetCursor(col, row uint8)
	WriteString(s string)
}

// Screen is a unit of UI behavior owning rendering and button handling while on top of stack.
// Screens are long-lived and owned by whoever constructed them, stack only references them.
type Screen interface {
	// Reset is called every time screen is pushed.
	Reset()
	// Update redraws if needed, forceRedraw means display content is unknown.
	Update(s Surface, forceRedraw bool)
	NotifyButtonPressed(b button.Button)
	// ScreenWaiting reports transient state that must not be interrupted, e.g. message on display.
	ScreenWaiting() bool
	// IsCancelScreen screens receive buttons even while board waits for a button mask.
	IsCancelScreen() bool
	// ContinuousButtons screens receive repeated presses while button is held.
	ContinuousButtons() bool
	SetBuildPercentage(pct uint8)
	UpdateRate() time.Duration
	// Pop is called right before screen is removed by user navigation.
	Pop()
}

// Navigator is what screens may ask of the board.
type Navigator interface {
	PushScreen(Screen)
	PopScreen()
	Pop2Screens()
	WaitForButton(button.Mask)
	ButtonPushed() bool
}

// Base provides default answers, embed and override what matters.
type Base struct{}

func (Base) Reset()                            {}
func (Base) NotifyButtonPressed(button.Button) {}
func (Base) ScreenWaiting() bool               { return false }
func (Base) IsCancelScreen() bool              { return false }
func (Base) ContinuousButtons() bool           { return false }
func (Base) SetBuildPercentage(uint8)          {}
func (Base) UpdateRate() time.Duration         { return DefaultUpdateRate }
func (Base) Pop()                              {}

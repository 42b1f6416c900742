// Package board is the interface board controller: screen stack,
// button routing with wait mask and repeat, build screen injection
// on host state changes and status LEDs.
//
// Board is driven by two periodic callers: Tick (UI context) and
// DoInterrupt (scan context). The only state they share is inside ButtonSource.
package board

import (
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/host"
	"github.com/temoto/panel/internal/screen"
	"github.com/temoto/panel/log2"
	"go.uber.org/atomic"
)

const (
	DefaultButtonRepeat = 100 * time.Millisecond
	DefaultWidth        = 20
	DefaultHeight       = 4

	// BuildPercentageUnknown is initial value, screens should not render progress.
	BuildPercentageUnknown uint8 = 101
)

type LEDID uint8

const (
	LEDGreen LEDID = iota
	LEDRed
	LEDCount
)

type LED interface {
	Set(on bool) error
}

// ButtonSource is the button hardware.
// Scan runs in scan context, GetButton and ClearButtonPress in tick context.
type ButtonSource interface {
	Scan()
	// GetButton returns latched press and clears the latch.
	GetButton() (button.Button, bool)
	// ClearButtonPress forgets held buttons so next Scan reports them again.
	ClearButtonPress()
}

type MessageScreen interface {
	screen.Screen
	ClearMessage()
	SetXY(col, row uint8)
	AddMessage(text string)
}

type Config struct {
	Width            uint8
	Height           uint8
	StackDepth       int
	ButtonRepeat     time.Duration
	DiagRespectsLock bool
	// MinTick bounds tick period from below, zero means screen rate as is.
	MinTick time.Duration
}

func DefaultConfig() Config {
	return Config{
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		StackDepth:       screen.DefaultDepth,
		ButtonRepeat:     DefaultButtonRepeat,
		DiagRespectsLock: true,
	}
}

// Deps are collaborators supplied by the composing caller.
// Diag and Commands are optional.
type Deps struct {
	Buttons  ButtonSource
	Display  screen.Surface
	LEDs     [LEDCount]LED
	Main     screen.Screen
	Build    screen.Screen
	Message  MessageScreen
	Diag     screen.Screen
	Host     host.Host
	Commands host.CommandQueue
	Log      *log2.Log
	// Now is clock source in nanoseconds, default atomic_clock.Source.
	Now func() int64
}

type Board struct { //nolint:maligned
	config Config
	deps   Deps
	log    *log2.Log
	stack  *screen.Stack
	repeat *button.Timer

	waitingMask     button.Mask
	buildPercentage uint8
	building        bool
	onboardBuild    bool
	locked          atomic.Bool
}

var _ screen.Navigator = &Board{}

func New(config Config, deps Deps) *Board {
	def := DefaultConfig()
	if config.Width == 0 {
		config.Width = def.Width
	}
	if config.Height == 0 {
		config.Height = def.Height
	}
	if config.ButtonRepeat <= 0 {
		config.ButtonRepeat = def.ButtonRepeat
	}
	if deps.Main == nil || deps.Build == nil || deps.Message == nil {
		panic("code error board.New requires Main, Build and Message screens")
	}
	if deps.Buttons == nil || deps.Display == nil || deps.Host == nil {
		panic("code error board.New requires Buttons, Display and Host")
	}
	self := &Board{
		config:          config,
		deps:            deps,
		log:             deps.Log,
		repeat:          button.NewTimer(deps.Now),
		buildPercentage: BuildPercentageUnknown,
	}
	self.stack = screen.NewStack(config.StackDepth, deps.Display, deps.Log)
	return self
}

// Init prepares display and LEDs and seeds stack with main screen.
// Safe to call again to start over.
func (self *Board) Init() {
	d := self.deps.Display
	d.Begin(self.config.Width, self.config.Height)
	d.Clear()
	d.Home()
	for id := LEDID(0); id < LEDCount; id++ {
		self.SetLED(id, false)
	}

	self.building = false
	self.onboardBuild = false
	self.waitingMask = button.MaskNone
	self.repeat.Clear()
	self.stack.Seed(self.deps.Main)
	self.locked.Store(false)
	self.log.Debugf("board init %dx%d depth=%d", self.config.Width, self.config.Height, self.stack.Limit())
}

// ResetLCD re-initializes display after fault.
func (self *Board) ResetLCD() {
	self.deps.Display.Begin(self.config.Width, self.config.Height)
}

// DoInterrupt is the scan context entry.
func (self *Board) DoInterrupt() { self.deps.Buttons.Scan() }

// UpdateRate of current screen, tick period.
func (self *Board) UpdateRate() time.Duration {
	if cur := self.stack.Current(); cur != nil {
		if r := cur.UpdateRate(); r > 0 {
			return r
		}
	}
	return screen.DefaultUpdateRate
}

// Lock freezes button dispatch and redraw until Unlock.
func (self *Board) Lock()        { self.locked.Store(true) }
func (self *Board) Unlock()      { self.locked.Store(false) }
func (self *Board) Locked() bool { return self.locked.Load() }

func (self *Board) SetBuildPercentage(pct uint8) {
	if pct < 100 {
		self.buildPercentage = pct
	}
}
func (self *Board) BuildPercentage() uint8 { return self.buildPercentage }

func (self *Board) SetLED(id LEDID, on bool) {
	if id >= LEDCount {
		self.log.Errorf("code error led id=%d", id)
		return
	}
	led := self.deps.LEDs[id]
	if led == nil {
		return
	}
	if err := led.Set(on); err != nil {
		self.log.Errorf("led id=%d on=%t err=%v", id, on, err)
	}
}

// ErrorMessage shows text on message screen.
func (self *Board) ErrorMessage(text string) {
	m := self.deps.Message
	m.ClearMessage()
	m.SetXY(0, 0)
	m.AddMessage(text)
	self.PushScreen(m)
}

// WaitForButton swallows the next press of any button in mask.
// Until then ButtonPushed is false. Cancel screens still receive presses.
func (self *Board) WaitForButton(mask button.Mask) { self.waitingMask = mask }

// ButtonPushed is true when nothing is awaited, including when WaitForButton was never called.
func (self *Board) ButtonPushed() bool { return self.waitingMask == button.MaskNone }

func (self *Board) WaitingMask() button.Mask { return self.waitingMask }

func (self *Board) Building() bool     { return self.building }
func (self *Board) OnboardBuild() bool { return self.onboardBuild }

func (self *Board) Stack() *screen.Stack         { return self.stack }
func (self *Board) CurrentScreen() screen.Screen { return self.stack.Current() }

func (self *Board) PushScreen(s screen.Screen) {
	self.stack.Push(s)
	self.log.Debugf("board push depth=%d", self.stack.Depth())
}

func (self *Board) PushNoUpdate(s screen.Screen) { self.stack.PushNoUpdate(s) }

func (self *Board) PopScreen() {
	self.stack.Pop()
	self.log.Debugf("board pop depth=%d", self.stack.Depth())
}

func (self *Board) PopScreens(n int) { self.stack.PopN(n) }

func (self *Board) Pop2Screens() { self.stack.Pop2() }

// Tick is one UI cycle: follow host state, route one button, render.
func (self *Board) Tick() {
	if p, ok := self.deps.Host.(host.Progress); ok {
		if pct, known := p.BuildPercentage(); known {
			self.SetBuildPercentage(pct)
		}
	}
	self.monitorBuild()
	self.routeButtons()
}

// Run ticks at current screen update rate until stopped.
func (self *Board) Run(a *alive.Alive) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	stopch := a.StopChan()
	tmr := time.NewTimer(0)
	defer tmr.Stop()
	for {
		select {
		case <-tmr.C:
			self.Tick()
			d := self.UpdateRate()
			if d < self.config.MinTick {
				d = self.config.MinTick
			}
			tmr.Reset(d)
		case <-stopch:
			return
		}
	}
}

// RunScan calls DoInterrupt periodically until stopped.
func (self *Board) RunScan(a *alive.Alive, period time.Duration) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	tkr := time.NewTicker(period)
	defer tkr.Stop()
	stopch := a.StopChan()
	for {
		select {
		case <-tkr.C:
			self.DoInterrupt()
		case <-stopch:
			return
		}
	}
}

package board

import (
	"fmt"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/panel/hardware/input"
	"github.com/temoto/panel/internal/button"
	"github.com/temoto/panel/internal/host"
	"github.com/temoto/panel/internal/screen"
	"github.com/temoto/panel/log2"
)

type fakeScreen struct {
	screen.Base
	name       string
	waiting    bool
	cancel     bool
	continuous bool
	pressed    []button.Button
	resets     int
	pops       int
	updates    int
	forced     int
	percent    uint8
	text       []string
}

func (self *fakeScreen) Reset()                              { self.resets++ }
func (self *fakeScreen) Pop()                                { self.pops++ }
func (self *fakeScreen) ScreenWaiting() bool                 { return self.waiting }
func (self *fakeScreen) IsCancelScreen() bool                { return self.cancel }
func (self *fakeScreen) ContinuousButtons() bool             { return self.continuous }
func (self *fakeScreen) SetBuildPercentage(p uint8)          { self.percent = p }
func (self *fakeScreen) NotifyButtonPressed(b button.Button) { self.pressed = append(self.pressed, b) }
func (self *fakeScreen) Update(_ screen.Surface, force bool) {
	self.updates++
	if force {
		self.forced++
	}
}
func (self *fakeScreen) ClearMessage()        { self.text = nil }
func (self *fakeScreen) SetXY(col, row uint8) { self.text = append(self.text, fmt.Sprintf("@%d,%d", col, row)) }
func (self *fakeScreen) AddMessage(s string)  { self.text = append(self.text, s) }

type fakeButtons struct {
	box     button.Mailbox
	scans   int
	clears  int
	onScan  func()
	pending []button.Button
}

func (self *fakeButtons) Scan() {
	self.scans++
	if len(self.pending) > 0 {
		self.box.Put(self.pending[0])
		self.pending = self.pending[1:]
	}
}
func (self *fakeButtons) GetButton() (button.Button, bool) { return self.box.Take() }
func (self *fakeButtons) ClearButtonPress()                { self.clears++ }

type fakeLED struct {
	on   bool
	sets int
	err  error
}

func (self *fakeLED) Set(on bool) error {
	self.sets++
	if self.err != nil {
		return self.err
	}
	self.on = on
	return nil
}

type fakeSurface struct{ begins, clears, homes int }

func (self *fakeSurface) Begin(uint8, uint8)     { self.begins++ }
func (self *fakeSurface) Clear()                 { self.clears++ }
func (self *fakeSurface) Home()                  { self.homes++ }
func (self *fakeSurface) SetCursor(uint8, uint8) {}
func (self *fakeSurface) WriteString(string)     {}

type tenv struct {
	b       *Board
	buttons *fakeButtons
	surface *fakeSurface
	host    *host.Static
	main    *fakeScreen
	build   *fakeScreen
	message *fakeScreen
	diag    *fakeScreen
	green   *fakeLED
	red     *fakeLED
	now     int64
}

func newEnv(t testing.TB, config Config) *tenv {
	env := &tenv{
		buttons: &fakeButtons{},
		surface: &fakeSurface{},
		host:    host.NewStatic(),
		main:    &fakeScreen{name: "main"},
		build:   &fakeScreen{name: "build"},
		message: &fakeScreen{name: "message"},
		diag:    &fakeScreen{name: "diag"},
		green:   &fakeLED{},
		red:     &fakeLED{},
		now:     1,
	}
	env.b = New(config, Deps{
		Buttons:  env.buttons,
		Display:  env.surface,
		LEDs:     [LEDCount]LED{env.green, env.red},
		Main:     env.main,
		Build:    env.build,
		Message:  env.message,
		Diag:     env.diag,
		Host:     env.host,
		Commands: env.host,
		Log:      log2.NewTest(t, log2.LDebug),
		Now:      func() int64 { return env.now },
	})
	env.b.Init()
	return env
}

func (env *tenv) press(b button.Button) {
	env.buttons.box.Put(b)
	env.b.Tick()
}

func (env *tenv) advance(d time.Duration) { env.now += int64(d) }

func TestInit(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	assert.Equal(t, 1, env.surface.begins)
	assert.Equal(t, 1, env.surface.clears)
	assert.Equal(t, 1, env.surface.homes)
	assert.Equal(t, 1, env.green.sets)
	assert.Equal(t, 1, env.red.sets)
	assert.Equal(t, 1, env.b.Stack().Depth())
	assert.Equal(t, env.main, env.b.CurrentScreen())
	assert.Equal(t, 1, env.main.resets)
	assert.Equal(t, 1, env.main.forced)
	assert.True(t, env.b.ButtonPushed())
	assert.False(t, env.b.Building())
	assert.False(t, env.b.Locked())
	assert.Equal(t, BuildPercentageUnknown, env.b.BuildPercentage())

	env.b.PushScreen(env.message)
	env.b.Lock()
	env.b.WaitForButton(button.MaskCenter)
	env.b.Init()
	assert.Equal(t, 1, env.b.Stack().Depth())
	assert.True(t, env.b.ButtonPushed())
	assert.False(t, env.b.Locked())
}

func TestWaitForButton(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		cancel      bool
		press       button.Button
		expectMask  button.Mask
		expectPress []button.Button
	}{
		// non-matching button is dispatched normally
		{"non-matching", false, button.ButtonLeft, button.MaskCenter, []button.Button{button.ButtonLeft}},
		// matching button is swallowed
		{"matching", false, button.ButtonCenter, button.MaskNone, nil},
		{"cancel-screen", true, button.ButtonCenter, button.MaskCenter, []button.Button{button.ButtonCenter}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			env := newEnv(t, DefaultConfig())
			env.main.cancel = c.cancel
			env.b.WaitForButton(button.MaskCenter)
			assert.False(t, env.b.ButtonPushed())
			env.press(c.press)
			assert.Equal(t, c.expectMask, env.b.WaitingMask())
			assert.Equal(t, c.expectMask == button.MaskNone, env.b.ButtonPushed())
			assert.Equal(t, c.expectPress, env.main.pressed)
			assert.Equal(t, 1, env.host.UserInputs())
		})
	}
}

func TestResetButton(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	env.host.SetState(host.StateBuilding)
	env.b.Tick()
	require.True(t, env.b.Building())
	updates := env.build.updates
	env.press(button.ButtonReset)
	assert.Equal(t, 1, env.host.Stops())
	assert.Equal(t, 1, env.host.UserInputs())
	assert.Empty(t, env.build.pressed)
	assert.Equal(t, updates, env.build.updates, "reset must skip render")
}

func TestEgg(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	env.press(button.ButtonEgg)
	assert.Equal(t, env.diag, env.b.CurrentScreen())
	assert.Empty(t, env.main.pressed)
	assert.Equal(t, 1, env.host.UserInputs())
}

func TestEggLocked(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		respect     bool
		press       button.Button
		expectDepth int
	}{
		{"respect/egg", true, button.ButtonEgg, 1},
		{"escape/egg", false, button.ButtonEgg, 2},
		{"escape/other", false, button.ButtonLeft, 1},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			config := DefaultConfig()
			config.DiagRespectsLock = c.respect
			env := newEnv(t, config)
			env.b.Lock()
			updates := env.main.updates
			env.press(c.press)
			assert.Equal(t, c.expectDepth, env.b.Stack().Depth())
			assert.Empty(t, env.main.pressed)
			assert.Equal(t, updates, env.main.updates)
			assert.Equal(t, 0, env.host.UserInputs())
		})
	}
}

func TestLockSkipsTick(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	env.b.Lock()
	updates := env.main.updates
	env.press(button.ButtonLeft)
	assert.Equal(t, updates, env.main.updates)
	assert.Empty(t, env.main.pressed)

	// press latched while locked is still delivered after unlock
	env.b.Unlock()
	env.b.Tick()
	assert.Equal(t, []button.Button{button.ButtonLeft}, env.main.pressed)
	assert.Equal(t, updates+1, env.main.updates)
}

func TestRepeat(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	env.main.continuous = true
	env.press(button.ButtonUp)
	assert.Equal(t, []button.Button{button.ButtonUp}, env.main.pressed)
	assert.Equal(t, 0, env.buttons.clears)

	env.advance(DefaultButtonRepeat / 2)
	env.b.Tick()
	assert.Equal(t, 0, env.buttons.clears)

	env.advance(DefaultButtonRepeat)
	env.b.Tick()
	assert.Equal(t, 1, env.buttons.clears)
	env.advance(DefaultButtonRepeat)
	env.b.Tick()
	env.b.Tick()
	assert.Equal(t, 1, env.buttons.clears, "clear exactly once")

	// screen without continuous buttons does not arm
	env.main.continuous = false
	env.press(button.ButtonUp)
	env.advance(2 * DefaultButtonRepeat)
	env.b.Tick()
	assert.Equal(t, 1, env.buttons.clears)
}

func TestBuildScreen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		state        host.State
		topWaiting   bool
		queueWaiting bool
		expectOnb    bool
		expectDepth  int
	}{
		{"building", host.StateBuilding, false, false, false, 0},
		{"building-sd", host.StateBuildingFromSD, false, false, false, 0},
		{"onboard", host.StateBuildingOnboard, false, false, true, 1},
		{"building/top-waiting", host.StateBuilding, true, false, false, 0},
		{"onboard/queue-waiting", host.StateBuildingOnboard, false, true, true, 1},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			env := newEnv(t, DefaultConfig())
			menu := &fakeScreen{name: "menu"}
			env.b.PushScreen(menu)
			top := screen.Screen(menu)
			if c.topWaiting {
				env.message.waiting = true
				env.b.ErrorMessage("heater fault")
				top = env.message
				assert.Equal(t, []string{"@0,0", "heater fault"}, env.message.text)
			}
			env.host.SetWaiting(c.queueWaiting)
			env.host.SetState(c.state)
			env.b.Tick()
			require.True(t, env.b.Building())
			assert.Equal(t, c.expectOnb, env.b.OnboardBuild())
			deferred := c.topWaiting || c.queueWaiting
			if deferred {
				assert.Equal(t, top, env.b.CurrentScreen())
				assert.Equal(t, env.build, env.b.Stack().At(env.b.Stack().Index()-1))
				assert.Equal(t, 0, env.build.updates, "hidden build screen must not draw")
			} else {
				assert.Equal(t, env.build, env.b.CurrentScreen())
			}
			assert.Equal(t, 1, env.build.resets)

			// repeated building ticks do not push again
			env.b.Tick()
			assert.Equal(t, 1, env.build.resets)

			if c.topWaiting {
				// build ends while message is still shown
				env.host.SetState(host.StateOther)
				env.b.Tick()
				assert.True(t, env.b.Building())
				env.message.waiting = false
				env.b.PopScreen()
				assert.Equal(t, env.build, env.b.CurrentScreen())
			}
			env.host.SetWaiting(false)
			env.host.SetState(host.StateOther)
			env.b.Tick()
			assert.False(t, env.b.Building())
			assert.Equal(t, c.expectDepth+1, env.b.Stack().Depth())
			assert.Equal(t, env.main, env.b.Stack().At(0))
		})
	}
}

func TestHeatShutdownHolds(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	env.host.SetState(host.StateBuilding)
	env.b.Tick()
	env.host.SetState(host.StateHeatShutdown)
	env.b.Tick()
	assert.True(t, env.b.Building())
	assert.Equal(t, env.build, env.b.CurrentScreen())

	// unknown state is treated as other
	env.host.SetState(host.State(42))
	env.b.Tick()
	assert.False(t, env.b.Building())
	assert.Equal(t, env.main, env.b.CurrentScreen())
}

func TestBuildBehindFull(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.StackDepth = 2
	env := newEnv(t, config)
	env.message.waiting = true
	env.b.PushScreen(env.message)
	env.host.SetState(host.StateBuilding)
	env.b.Tick()
	assert.True(t, env.b.Building())
	assert.Equal(t, 2, env.b.Stack().Depth())
	assert.Equal(t, env.message, env.b.CurrentScreen())
	assert.Equal(t, 0, env.build.resets)
}

func TestBuildPercentage(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	env.b.SetBuildPercentage(100)
	assert.Equal(t, BuildPercentageUnknown, env.b.BuildPercentage())
	env.host.SetBuildPercentage(37)
	env.b.Tick()
	assert.Equal(t, uint8(37), env.b.BuildPercentage())
	assert.Equal(t, uint8(37), env.main.percent)
	env.host.SetBuildPercentage(-1)
	env.b.Tick()
	assert.Equal(t, uint8(37), env.main.percent)
}

func TestLED(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	env.b.SetLED(LEDGreen, true)
	env.b.SetLED(LEDRed, true)
	env.b.SetLED(LEDRed, false)
	assert.True(t, env.green.on)
	assert.False(t, env.red.on)

	env.red.err = errors.New("line busy")
	env.b.SetLED(LEDRed, true)
	assert.False(t, env.red.on)
	env.b.SetLED(LEDCount, true)
}

func TestNavigation(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	a := &fakeScreen{name: "a"}
	b := &fakeScreen{name: "b"}
	env.b.PushScreen(a)
	env.b.PushScreen(b)
	env.b.Pop2Screens()
	assert.Equal(t, env.main, env.b.CurrentScreen())
	env.b.PushScreen(a)
	env.b.PopScreen()
	assert.Equal(t, 1, a.pops)
	env.b.PopScreen()
	env.b.PopScreens(0)
	assert.Equal(t, env.main, env.b.CurrentScreen())
	assert.Equal(t, 1, env.b.Stack().Depth())
	env.b.PushNoUpdate(a)
	assert.Equal(t, a, env.b.CurrentScreen())
	assert.Equal(t, 3, a.resets)
	env.b.PopScreens(5)
	assert.Equal(t, 1, env.b.Stack().Depth())
}

func TestScanAndRate(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	env.buttons.pending = []button.Button{button.ButtonDown, button.ButtonUp}
	env.b.DoInterrupt()
	env.b.DoInterrupt()
	env.b.Tick()
	// second press before tick is coalesced
	assert.Equal(t, []button.Button{button.ButtonUp}, env.main.pressed)
	assert.Equal(t, screen.DefaultUpdateRate, env.b.UpdateRate())
	env.b.ResetLCD()
	assert.Equal(t, 2, env.surface.begins)
}

func TestRunLoops(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	a := alive.NewAlive()
	go env.b.Run(a)
	go env.b.RunScan(a, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	a.Stop()
	a.Wait()
	// fakes are safe to read after Wait
	assert.NotEqual(t, 0, env.buttons.scans)
	assert.NotEqual(t, 0, env.main.updates)

	// stopped alive refuses new loops
	scans := env.buttons.scans
	env.b.RunScan(a, time.Millisecond)
	env.b.Run(a)
	assert.Equal(t, scans, env.buttons.scans)
}

func TestRepeatHeldArray(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	arr := input.NewArray(log2.NewTest(t, log2.LDebug), button.MaskOf(button.ButtonUp, button.ButtonDown))
	env.b.deps.Buttons = arr
	env.main.continuous = true
	cycle := func() {
		env.b.DoInterrupt()
		env.b.Tick()
		env.advance(DefaultButtonRepeat)
	}

	arr.Press(button.ButtonDown)
	for i := 0; i < 10; i++ {
		cycle()
	}
	// held press is latched again every other cycle: dispatch, then clear
	assert.Equal(t, 5, len(env.main.pressed))
	for _, b := range env.main.pressed {
		assert.Equal(t, button.ButtonDown, b)
	}

	arr.Release(button.ButtonDown)
	for i := 0; i < 6; i++ {
		cycle()
	}
	assert.Equal(t, 5, len(env.main.pressed))
}

func TestLockedPressKept(t *testing.T) {
	t.Parallel()

	env := newEnv(t, DefaultConfig())
	arr := input.NewArray(log2.NewTest(t, log2.LDebug), button.MaskNone)
	env.b.deps.Buttons = arr
	env.b.Lock()
	arr.Press(button.ButtonLeft)
	env.b.DoInterrupt()
	env.b.Tick()
	assert.Empty(t, env.main.pressed)

	env.b.Unlock()
	env.b.Tick()
	assert.Equal(t, []button.Button{button.ButtonLeft}, env.main.pressed)
}

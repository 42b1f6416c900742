package state

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/panel/hardware/input"
	"github.com/temoto/panel/hardware/lcd"
	"github.com/temoto/panel/hardware/led"
	"github.com/temoto/panel/internal/board"
)

const gpioConsumer = "panel"

type hardware struct {
	HD44780 struct {
		once
		Device  *lcd.LCD
		Display *lcd.TextDisplay
		// set when hd44780 is disabled, display content is kept in memory
		Mock *lcd.MockDevicer
	}
	Input struct {
		once
		Array  *input.Array
		Keymap input.Keymap
		// nil when no input source is enabled, e.g. console
		Source input.Source
		alive  *alive.Alive
	}
	LED struct {
		once
		Outputs [board.LEDCount]led.Output
		chip    gpio.Chiper
	}
}

func (g *Global) MustTextDisplay() *lcd.TextDisplay {
	d, err := g.TextDisplay()
	if err != nil {
		g.Log.Fatal(err)
	}
	if d == nil {
		g.Log.Fatal("text display is not available")
	}
	return d
}

func (g *Global) TextDisplay() (*lcd.TextDisplay, error) {
	x := &g.Hardware.HD44780
	_ = x.do(func() error {
		if x.Display != nil { // testing mode
			return nil
		}

		devConfig := &g.Config.Hardware.HD44780
		bc := g.Config.BoardConfig()
		if !devConfig.Enable {
			g.Log.Infof("text display hd44780 is disabled, using memory display")
			x.Display, x.Mock = lcd.NewMockTextDisplay(bc.Width, bc.Height, devConfig.Codepage)
			return nil
		}

		dev := new(lcd.LCD)
		if err := dev.Init(devConfig.PinChip, devConfig.Pinmap, devConfig.Page1); err != nil {
			return errors.Annotatef(err, "hd44780.Init config=%#v", devConfig)
		}
		ctrl := lcd.ControlOn
		if devConfig.ControlBlink {
			ctrl |= lcd.ControlBlink
		}
		if devConfig.ControlCursor {
			ctrl |= lcd.ControlUnderscore
		}
		dev.SetControl(ctrl)
		x.Device = dev

		disp, err := lcd.NewTextDisplay(dev, devConfig.Codepage)
		if err != nil {
			return errors.Annotate(err, "hd44780")
		}
		x.Display = disp
		return nil
	})
	return x.Display, x.err
}

// Input returns button array and its hardware source, if any.
func (g *Global) Input() (*input.Array, error) {
	x := &g.Hardware.Input
	_ = x.do(func() error {
		egg, err := g.Config.EggMask()
		if err != nil {
			return err
		}
		x.Keymap, err = input.ParseKeymap(g.Config.Hardware.Input.Keymap)
		if err != nil {
			return errors.Annotate(err, "config: hardware.input")
		}
		x.Array = input.NewArray(g.Log, egg)

		devConfig := &g.Config.Hardware.Input.DevInputEvent
		if !devConfig.Enable {
			g.Log.Infof("input=%s disabled", input.DevInputEventTag)
			return nil
		}
		src, err := input.NewDevInputEventSource(devConfig.Device, devConfig.Grab)
		if err != nil {
			return errors.Annotatef(err, "input=%s", input.DevInputEventTag)
		}
		x.Source = src
		g.Log.Debugf("input=%s device=%s keymap=%s", input.DevInputEventTag, devConfig.Device, x.Keymap.String())
		return nil
	})
	return x.Array, x.err
}

func (g *Global) LEDs() ([board.LEDCount]led.Output, error) {
	x := &g.Hardware.LED
	_ = x.do(func() error {
		devConfig := &g.Config.Hardware.LED
		names := [board.LEDCount]string{board.LEDGreen: devConfig.Green, board.LEDRed: devConfig.Red}
		labels := [board.LEDCount]string{board.LEDGreen: "led-green", board.LEDRed: "led-red"}

		switch devConfig.Driver {
		case "":
			g.Log.Infof("led driver is not set, using mock")
			for i := range x.Outputs {
				x.Outputs[i] = new(led.Mock)
			}
			return nil

		case "cdev":
			chip, err := gpio.Open(devConfig.PinChip, gpioConsumer)
			if err != nil {
				return errors.Annotatef(err, "led pin_chip=%s", devConfig.PinChip)
			}
			x.chip = chip
			for i, name := range names {
				if name == "" {
					continue
				}
				line, err := strconv.ParseUint(name, 10, 32)
				if err != nil {
					return errors.NotValidf("config: hardware.led %s=%q", labels[i], name)
				}
				out, err := led.OpenCdev(chip, uint32(line), labels[i], devConfig.ActiveLow)
				if err != nil {
					return err
				}
				x.Outputs[i] = out
			}
			return nil

		case "periph":
			if err := led.InitPeriph(); err != nil {
				return err
			}
			for i, name := range names {
				if name == "" {
					continue
				}
				out, err := led.OpenPeriph(name, devConfig.ActiveLow)
				if err != nil {
					return errors.Annotatef(err, "config: hardware.led %s", labels[i])
				}
				x.Outputs[i] = out
			}
			return nil

		default:
			return errors.NotValidf("config: hardware.led driver=%q valid: cdev, periph or empty", devConfig.Driver)
		}
	})
	return x.Outputs, x.err
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}

// Package led drives status LEDs.
package led

import (
	"sync"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"go.uber.org/atomic"
	periph_gpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

type Output interface {
	Set(on bool) error
}

// Cdev is one LED on gpio character device line.
type Cdev struct {
	mu        sync.Mutex
	lines     gpio.Lineser
	set       gpio.LineSetFunc
	activeLow bool
}

func OpenCdev(chip gpio.Chiper, line uint32, label string, activeLow bool) (*Cdev, error) {
	lines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, label, line)
	if err != nil {
		return nil, errors.Annotatef(err, "led=%s line=%d", label, line)
	}
	return &Cdev{lines: lines, set: lines.SetFunc(line), activeLow: activeLow}, nil
}

func (self *Cdev) Set(on bool) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	var v byte
	if on != self.activeLow {
		v = 1
	}
	self.set(v)
	return self.lines.Flush()
}

func (self *Cdev) Close() error { return self.lines.Close() }

var periphOnce struct {
	sync.Once
	err error
}

// InitPeriph loads periph.io drivers once per process.
func InitPeriph() error {
	periphOnce.Do(func() {
		_, err := host.Init()
		periphOnce.err = errors.Annotate(err, "periph/init")
	})
	return periphOnce.err
}

// Periph is one LED on pin found by periph.io name, e.g. GPIO17.
type Periph struct {
	pin       periph_gpio.PinIO
	activeLow bool
}

func OpenPeriph(name string, activeLow bool) (*Periph, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.NotFoundf("led pin=%s", name)
	}
	return &Periph{pin: pin, activeLow: activeLow}, nil
}

func (self *Periph) Set(on bool) error {
	level := periph_gpio.Level(on != self.activeLow)
	return errors.Annotatef(self.pin.Out(level), "led pin=%s", self.pin.Name())
}

// Mock remembers last state.
type Mock struct {
	on   atomic.Bool
	sets atomic.Uint32
	Err  error
}

func (self *Mock) Set(on bool) error {
	self.sets.Inc()
	if self.Err != nil {
		return self.Err
	}
	self.on.Store(on)
	return nil
}

func (self *Mock) On() bool     { return self.on.Load() }
func (self *Mock) Sets() uint32 { return self.sets.Load() }

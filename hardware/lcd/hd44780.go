package lcd

import (
	"strconv"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/gpio-cdev-go"
)

type Command byte

const (
	CommandClear   Command = 0x01
	CommandReturn  Command = 0x02
	CommandControl Command = 0x08
	CommandAddress Command = 0x80
)

type Control byte

const (
	ControlOn         Control = 0x04
	ControlUnderscore Control = 0x02
	ControlBlink      Control = 0x01
)

// DDRAM start of each row, 20x4 and 16x2 modules share the layout.
var rowAddress = [4]byte{0x00, 0x40, 0x14, 0x54}

// LCD is HD44780 in 4 bit mode over gpio character device.
type LCD struct {
	control Control
	page1   bool
	cols    uint8
	rows    uint8
	pinChip gpio.Chiper
	pins    gpio.Lineser
	pin_rs  gpio.LineSetFunc // command/data, aliases: A0, RS
	pin_rw  gpio.LineSetFunc // read/write
	pin_e   gpio.LineSetFunc // enable
	pin_d4  gpio.LineSetFunc
	pin_d5  gpio.LineSetFunc
	pin_d6  gpio.LineSetFunc
	pin_d7  gpio.LineSetFunc
}

var _ Devicer = &LCD{}

type PinMap struct {
	RS string `hcl:"rs"`
	RW string `hcl:"rw"`
	E  string `hcl:"e"`
	D4 string `hcl:"d4"`
	D5 string `hcl:"d5"`
	D6 string `hcl:"d6"`
	D7 string `hcl:"d7"`
}

func (self *PinMap) offsets() ([7]uint32, error) {
	var out [7]uint32
	for i, s := range [7]string{self.RS, self.RW, self.E, self.D4, self.D5, self.D6, self.D7} {
		x, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return out, errors.NotValidf("lcd pin=%q", s)
		}
		out[i] = uint32(x)
	}
	return out, nil
}

func (self *LCD) Init(chipName string, pinmap PinMap, page1 bool) error {
	chip, err := gpio.Open(chipName, "lcd")
	if err != nil {
		return errors.Annotatef(err, "lcd open chip=%s", chipName)
	}
	if err = self.InitChip(chip, pinmap, page1); err != nil {
		chip.Close()
		return err
	}
	return nil
}

// InitChip is Init with already open chip, used with mock.
func (self *LCD) InitChip(chip gpio.Chiper, pinmap PinMap, page1 bool) error {
	offsets, err := pinmap.offsets()
	if err != nil {
		return err
	}
	self.pinChip = chip
	self.page1 = page1
	self.pins, err = self.pinChip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "lcd", offsets[:]...)
	if err != nil {
		return errors.Annotate(err, "lcd open lines")
	}
	self.pin_rs = self.pins.SetFunc(offsets[0])
	self.pin_rw = self.pins.SetFunc(offsets[1])
	self.pin_e = self.pins.SetFunc(offsets[2])
	self.pin_d4 = self.pins.SetFunc(offsets[3])
	self.pin_d5 = self.pins.SetFunc(offsets[4])
	self.pin_d6 = self.pins.SetFunc(offsets[5])
	self.pin_d7 = self.pins.SetFunc(offsets[6])
	return nil
}

func (self *LCD) Close() error {
	if self.pins != nil {
		self.pins.Close()
	}
	if self.pinChip != nil {
		return self.pinChip.Close()
	}
	return nil
}

// Begin runs controller init sequence, also recovers from garbage on display.
func (self *LCD) Begin(cols, rows uint8) {
	self.cols, self.rows = cols, rows
	self.init4(self.page1)
}

func (self *LCD) setAllPins(b byte) {
	self.pin_rs(b)
	self.pin_rw(b)
	self.pin_e(b)
	self.pin_d4(b)
	self.pin_d5(b)
	self.pin_d6(b)
	self.pin_d7(b)
	self.pins.Flush() //nolint:errcheck
}

func (self *LCD) blinkE() {
	self.pin_e(1)
	self.pins.Flush() //nolint:errcheck
	time.Sleep(1 * time.Microsecond)
	self.pin_e(0)
	self.pins.Flush() //nolint:errcheck
	time.Sleep(1 * time.Microsecond)
}

func (self *LCD) send4(rs, d4, d5, d6, d7 byte) {
	self.pin_rs(rs)
	self.pin_d4(d4)
	self.pin_d5(d5)
	self.pin_d6(d6)
	self.pin_d7(d7)
	self.blinkE()
}

func (self *LCD) init4(page1 bool) {
	time.Sleep(20 * time.Millisecond)

	// special sequence
	self.Command(0x33)
	self.Command(0x32)

	self.SetFunction(false, page1)
	self.SetControl(0) // off
	self.SetControl(ControlOn)
	self.Clear()
	self.SetEntryMode(true, false)
}

func bb(b, bit byte) byte {
	if b&(1<<bit) == 0 {
		return 0
	}
	return 1
}

func (self *LCD) Command(c Command) {
	b := byte(c)
	self.send4(0, bb(b, 4), bb(b, 5), bb(b, 6), bb(b, 7))
	self.send4(0, bb(b, 0), bb(b, 1), bb(b, 2), bb(b, 3))
	// TODO poll busy flag, needs RW wired as input
	time.Sleep(40 * time.Microsecond)
	self.setAllPins(0)
}

func (self *LCD) Data(b byte) {
	self.send4(1, bb(b, 4), bb(b, 5), bb(b, 6), bb(b, 7))
	self.send4(1, bb(b, 0), bb(b, 1), bb(b, 2), bb(b, 3))
	time.Sleep(40 * time.Microsecond)
	self.setAllPins(0)
}

func (self *LCD) Write(bs []byte) {
	for _, b := range bs {
		self.Data(b)
	}
}

func (self *LCD) Clear() {
	self.Command(CommandClear)
	time.Sleep(2 * time.Millisecond)
}

func (self *LCD) Return() {
	self.Command(CommandReturn)
	time.Sleep(2 * time.Millisecond)
}

func (self *LCD) SetEntryMode(right, shift bool) {
	var cmd Command = 0x04
	if right {
		cmd |= 0x02
	}
	if shift {
		cmd |= 0x01
	}
	self.Command(cmd)
}

func (self *LCD) Control() Control {
	return self.control
}
func (self *LCD) SetControl(new Control) Control {
	old := self.control
	self.control = new
	self.Command(CommandControl | Command(new))
	return old
}

func (self *LCD) SetFunction(bits8, page1 bool) {
	var cmd Command = 0x28
	if bits8 {
		cmd |= 0x10
	}
	if page1 {
		cmd |= 0x02
	}
	self.Command(cmd)
}

// CursorYX is 1-based.
func (self *LCD) CursorYX(row uint8, column uint8) bool {
	if !(row > 0 && row <= self.rows && int(row) <= len(rowAddress)) {
		return false
	}
	if !(column > 0 && column <= self.cols) {
		return false
	}
	addr := rowAddress[row-1] + (column - 1)
	self.Command(CommandAddress | Command(addr))
	return true
}

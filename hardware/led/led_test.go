package led

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gpio "github.com/temoto/gpio-cdev-go"
	gpio_mock "github.com/temoto/gpio-cdev-go/mock"
	periph_gpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/gpio/gpiotest"
)

func TestCdev(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		activeLow bool
		on        bool
		expect    byte
	}{
		{"high/on", false, true, 1},
		{"high/off", false, false, 0},
		{"low/on", true, true, 0},
		{"low/off", true, false, 1},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			var value byte = 0xff
			lines := new(gpio_mock.MockLines)
			lines.On("SetFunc", uint32(17)).Return(gpio.LineSetFunc(func(v byte) { value = v }))
			lines.On("Flush").Return(nil)
			chip := new(gpio_mock.MockChip)
			chip.On("OpenLines", gpio.GPIOHANDLE_REQUEST_OUTPUT, "led-green", uint32(17)).Return(lines, nil)

			l, err := OpenCdev(chip, 17, "led-green", c.activeLow)
			require.NoError(t, err)
			require.NoError(t, l.Set(c.on))
			assert.Equal(t, c.expect, value)
			lines.AssertCalled(t, "Flush")
		})
	}
}

func TestCdevOpenError(t *testing.T) {
	t.Parallel()

	chip := new(gpio_mock.MockChip)
	chip.On("OpenLines", gpio.GPIOHANDLE_REQUEST_OUTPUT, "led-red", uint32(3)).Return(new(gpio_mock.MockLines), errors.New("busy"))
	_, err := OpenCdev(chip, 3, "led-red", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "led=led-red line=3")
}

func TestPeriph(t *testing.T) {
	t.Parallel()

	pin := &gpiotest.Pin{N: "PANEL_TEST_LED", L: periph_gpio.Low}
	require.NoError(t, gpioreg.Register(pin))

	l, err := OpenPeriph("PANEL_TEST_LED", false)
	require.NoError(t, err)
	require.NoError(t, l.Set(true))
	assert.Equal(t, periph_gpio.High, pin.Read())

	inv, err := OpenPeriph("PANEL_TEST_LED", true)
	require.NoError(t, err)
	require.NoError(t, inv.Set(true))
	assert.Equal(t, periph_gpio.Low, pin.Read())

	_, err = OpenPeriph("PANEL_NO_SUCH_PIN", false)
	assert.True(t, errors.IsNotFound(err))
}

func TestMock(t *testing.T) {
	t.Parallel()

	m := &Mock{}
	require.NoError(t, m.Set(true))
	assert.True(t, m.On())
	m.Err = errors.New("broken")
	assert.Error(t, m.Set(false))
	assert.True(t, m.On())
	assert.Equal(t, uint32(2), m.Sets())
}

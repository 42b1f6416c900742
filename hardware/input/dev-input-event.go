package input

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/inputevent-go"
	"golang.org/x/sys/unix"
)

const DevInputEventTag = "dev-input-event"

const (
	evKey = 0x01
	// _IOW('E', 0x90, int)
	ioctlEVIOCGRAB = 0x40044590
)

type DevInputEventSource struct {
	f io.ReadCloser
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func (self *DevInputEventSource) String() string { return DevInputEventTag }

// NewDevInputEventSource opens evdev device. With grab other readers
// (e.g. console) do not get the events.
func NewDevInputEventSource(device string, grab bool) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotate(err, DevInputEventTag)
	}
	if grab {
		if err = unix.IoctlSetInt(int(f.Fd()), ioctlEVIOCGRAB, 1); err != nil {
			f.Close()
			return nil, errors.Annotatef(err, "%s grab device=%s", DevInputEventTag, device)
		}
	}
	return &DevInputEventSource{f: f}, nil
}

func NewDevInputEventReader(r io.ReadCloser) *DevInputEventSource {
	return &DevInputEventSource{f: r}
}

func (self *DevInputEventSource) Close() error { return self.f.Close() }

// Read skips everything except key down and up. Autorepeat (hold) is ignored,
// repeat is done by button array.
func (self *DevInputEventSource) Read() (Event, error) {
	for {
		ie, err := inputevent.ReadOne(self.f)
		if err != nil {
			return Event{}, err
		}
		if ie.Type != evKey {
			continue
		}
		switch inputevent.KeyEventState(ie.Value) {
		case inputevent.KeyStateDown:
			return Event{Source: DevInputEventTag, Code: ie.Code, Down: true}, nil
		case inputevent.KeyStateUp:
			return Event{Source: DevInputEventTag, Code: ie.Code}, nil
		}
	}
}

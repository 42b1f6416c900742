package lcd

import (
	"bytes"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/juju/errors"
	"github.com/paulrosania/go-charset/charset"
	_ "github.com/paulrosania/go-charset/data"
	"github.com/temoto/panel/internal/screen"
)

const (
	MaxWidth  = 40
	MaxHeight = 4
)

type Devicer interface {
	Begin(cols, rows uint8)
	Clear()
	Return()
	CursorYX(y, x uint8) bool
	Write(b []byte)
}

// TextDisplay is character display surface for screens.
// Keeps shadow copy of display memory and sends only changed rows.
type TextDisplay struct { //nolint:maligned
	mu     sync.Mutex
	dev    Devicer
	tr     atomic.Value // charset.Translator
	cols   uint8
	rows   uint8
	col    uint8
	row    uint8
	shadow [MaxHeight][MaxWidth]byte
	dirty  [MaxHeight]bool
	upd    chan<- struct{}
}

var _ screen.Surface = &TextDisplay{}

func NewTextDisplay(dev Devicer, codepage string) (*TextDisplay, error) {
	self := &TextDisplay{dev: dev}
	if codepage != "" {
		if err := self.SetCodepage(codepage); err != nil {
			return nil, errors.Annotatef(err, "codepage=%s", codepage)
		}
	}
	return self, nil
}

func (self *TextDisplay) SetCodepage(cp string) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	tr, err := charset.TranslatorTo(cp)
	if err != nil {
		return err
	}
	self.tr.Store(tr)
	return nil
}

func (self *TextDisplay) SetDevice(dev Devicer) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.dev = dev
}

// SetUpdateChan receives a signal after every flush to device.
func (self *TextDisplay) SetUpdateChan(ch chan<- struct{}) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.upd = ch
}

func (self *TextDisplay) Size() (cols, rows uint8) {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.cols, self.rows
}

func (self *TextDisplay) Begin(cols, rows uint8) {
	if cols > MaxWidth {
		cols = MaxWidth
	}
	if rows > MaxHeight {
		rows = MaxHeight
	}
	self.mu.Lock()
	defer self.mu.Unlock()

	self.cols, self.rows = cols, rows
	self.dev.Begin(cols, rows)
	self.clear()
}

func (self *TextDisplay) Clear() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.dev.Clear()
	self.clear()
}

func (self *TextDisplay) clear() {
	for r := range self.shadow {
		copy(self.shadow[r][:], spaceBytes)
		self.dirty[r] = false
	}
	self.col, self.row = 0, 0
}

func (self *TextDisplay) Home() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.dev.Return()
	self.col, self.row = 0, 0
}

func (self *TextDisplay) SetCursor(col, row uint8) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.col, self.row = col, row
}

// WriteString puts text at cursor, no wrap. Text beyond row end is dropped.
func (self *TextDisplay) WriteString(s string) {
	b := self.Translate(s)

	self.mu.Lock()
	defer self.mu.Unlock()

	if self.row >= self.rows {
		return
	}
	line := self.shadow[self.row][:self.cols]
	for _, c := range b {
		if self.col >= self.cols {
			break
		}
		if line[self.col] != c {
			line[self.col] = c
			self.dirty[self.row] = true
		}
		self.col++
	}
	self.flush()
}

// Line returns shadow content of row.
func (self *TextDisplay) Line(row uint8) []byte {
	self.mu.Lock()
	defer self.mu.Unlock()

	if row >= self.rows {
		return nil
	}
	return append([]byte(nil), self.shadow[row][:self.cols]...)
}

// Translate to display codepage. Without codepage non-ASCII is '?'.
func (self *TextDisplay) Translate(s string) []byte {
	if len(s) == 0 {
		return spaceBytes[:0]
	}
	tr, ok := self.tr.Load().(charset.Translator)
	if ok && tr != nil {
		_, tb, err := tr.Translate([]byte(s), true)
		if err == nil {
			// translator reuses single internal buffer, make a copy
			return append([]byte(nil), tb...)
		}
	}
	result := make([]byte, 0, len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			result = append(result, byte(r))
		} else {
			result = append(result, '?')
		}
	}
	return result
}

func (self *TextDisplay) flush() {
	flushed := false
	for r := uint8(0); r < self.rows; r++ {
		if !self.dirty[r] {
			continue
		}
		self.dev.CursorYX(r+1, 1)
		self.dev.Write(self.shadow[r][:self.cols])
		self.dirty[r] = false
		flushed = true
	}
	if flushed && self.upd != nil {
		self.upd <- struct{}{}
	}
}

var spaceBytes = bytes.Repeat([]byte{' '}, MaxWidth)

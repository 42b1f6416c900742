package lcd

import (
	"bytes"
	"fmt"
	"sync"
)

func NewMockTextDisplay(cols, rows uint8, codepage string) (*TextDisplay, *MockDevicer) {
	dev := new(MockDevicer)
	display, err := NewTextDisplay(dev, codepage)
	if err != nil {
		panic(fmt.Sprintf("code error codepage=%s err=%v", codepage, err))
	}
	display.Begin(cols, rows)
	return display, dev
}

// MockDevicer emulates display memory, for tests and console.
type MockDevicer struct {
	mu     sync.Mutex
	lines  [][]byte
	y, x   uint8
	begins int
	writes int
}

var _ Devicer = &MockDevicer{}

func (self *MockDevicer) Begin(cols, rows uint8) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.begins++
	self.lines = make([][]byte, rows)
	for i := range self.lines {
		self.lines[i] = bytes.Repeat([]byte{' '}, int(cols))
	}
	self.y, self.x = 1, 1
}

func (self *MockDevicer) Clear() {
	self.mu.Lock()
	defer self.mu.Unlock()
	for _, l := range self.lines {
		copy(l, spaceBytes)
	}
	self.y, self.x = 1, 1
}

func (self *MockDevicer) Return() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.y, self.x = 1, 1
}

func (self *MockDevicer) CursorYX(y, x uint8) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	if y == 0 || int(y) > len(self.lines) || x == 0 || int(x) > len(self.lines[y-1]) {
		return false
	}
	self.y, self.x = y, x
	return true
}

func (self *MockDevicer) Write(b []byte) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.writes++
	if self.y == 0 || int(self.y) > len(self.lines) {
		return
	}
	line := self.lines[self.y-1]
	for _, c := range b {
		if int(self.x) > len(line) {
			break
		}
		line[self.x-1] = c
		self.x++
	}
}

func (self *MockDevicer) Begins() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.begins
}

func (self *MockDevicer) Writes() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.writes
}

func (self *MockDevicer) String() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return string(bytes.Join(self.lines, []byte{'\n'}))
}

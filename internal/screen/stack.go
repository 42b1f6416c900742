package screen

import (
	"github.com/temoto/panel/log2"
)

// MaxDepth is the storage capacity; effective depth limit is set per Stack.
const MaxDepth = 16

const DefaultDepth = 8

// Stack is a bounded stack of borrowed screen references.
// Index 0 is the root screen, it is never removed.
// Overflow and underflow are refused silently (with a log line), never a fault.
type Stack struct {
	screens [MaxDepth]Screen
	index   int // -1 until Seed
	limit   int
	surface Surface
	log     *log2.Log
}

// NewStack with depth limit clamped to [1, MaxDepth].
func NewStack(limit int, surface Surface, log *log2.Log) *Stack {
	switch {
	case limit <= 0:
		limit = DefaultDepth
	case limit > MaxDepth:
		limit = MaxDepth
	}
	return &Stack{
		index:   -1,
		limit:   limit,
		surface: surface,
		log:     log,
	}
}

// Seed drops everything and pushes root.
func (self *Stack) Seed(root Screen) {
	for i := range self.screens {
		self.screens[i] = nil
	}
	self.index = -1
	self.Push(root)
}

func (self *Stack) Limit() int { return self.limit }
func (self *Stack) Index() int { return self.index }
func (self *Stack) Depth() int { return self.index + 1 }

// Current is top of stack, nil before Seed.
func (self *Stack) Current() Screen {
	if self.index < 0 {
		return nil
	}
	return self.screens[self.index]
}

// At returns screen at index i or nil.
func (self *Stack) At(i int) Screen {
	if i < 0 || i > self.index {
		return nil
	}
	return self.screens[i]
}

func (self *Stack) place(s Screen) bool {
	if self.index >= self.limit-1 {
		self.log.Errorf("screen stack full depth=%d, push refused", self.Depth())
		return false
	}
	self.index++
	self.screens[self.index] = s
	return true
}

// Push places s on top (unless full), then resets and force-updates the top.
func (self *Stack) Push(s Screen) bool {
	ok := self.place(s)
	top := self.Current()
	top.Reset()
	top.Update(self.surface, true)
	return ok
}

// PushNoUpdate is Push for callers that draw right after.
func (self *Stack) PushNoUpdate(s Screen) bool {
	ok := self.place(s)
	self.Current().Reset()
	return ok
}

// PushBehindCurrent inserts s right below the visible top.
// Top screen stays visible and unchanged, s is revealed when top is popped.
// Refused when full. Root can not be displaced, so with only root on stack
// this is an ordinary Push.
func (self *Stack) PushBehindCurrent(s Screen) bool {
	if self.index <= 0 {
		return self.Push(s)
	}
	if self.index >= self.limit-1 {
		self.log.Errorf("screen stack full depth=%d, push behind refused", self.Depth())
		return false
	}
	self.index++
	self.screens[self.index] = self.screens[self.index-1]
	self.screens[self.index-1] = s
	s.Reset()
	return true
}

// Pop notifies top, removes it unless it is root, force-updates new top.
func (self *Stack) Pop() {
	top := self.Current()
	if top == nil {
		return
	}
	top.Pop()
	if self.index > 0 {
		self.screens[self.index] = nil
		self.index--
	}
	self.Current().Update(self.surface, true)
}

// PopN removes n screens without Pop notifications, never below root.
func (self *Stack) PopN(n int) {
	if self.index < 0 {
		return
	}
	if n > 0 {
		target := self.index - n
		if target < 0 {
			target = 0
		}
		for i := self.index; i > target; i-- {
			self.screens[i] = nil
		}
		self.index = target
	}
	self.Current().Update(self.surface, true)
}

// PopTo removes screens without notifications until index is at most i.
func (self *Stack) PopTo(i int) {
	if self.index > i {
		self.PopN(self.index - i)
	}
}

// Pop2 removes two screens at once, only when both are above root.
func (self *Stack) Pop2() {
	if self.index < 0 {
		return
	}
	if self.index > 1 {
		self.screens[self.index] = nil
		self.screens[self.index-1] = nil
		self.index -= 2
	}
	self.Current().Update(self.surface, true)
}

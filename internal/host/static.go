package host

import (
	"sync/atomic"
)

// Static is in-memory host, for console and tests.
type Static struct {
	state      int32
	percent    int32
	waiting    uint32
	stops      uint32
	userInputs uint32
}

var _ Host = &Static{}
var _ CommandQueue = &Static{}
var _ Progress = &Static{}

func NewStatic() *Static { return &Static{percent: -1} }

func (self *Static) State() State { return State(atomic.LoadInt32(&self.state)).Normalize() }

func (self *Static) SetState(s State) { atomic.StoreInt32(&self.state, int32(s)) }

func (self *Static) StopBuild() {
	atomic.AddUint32(&self.stops, 1)
	self.SetState(StateOther)
}

func (self *Static) ResetUserInputTimeout() { atomic.AddUint32(&self.userInputs, 1) }

func (self *Static) IsWaiting() bool { return atomic.LoadUint32(&self.waiting) != 0 }

func (self *Static) SetWaiting(w bool) {
	var v uint32
	if w {
		v = 1
	}
	atomic.StoreUint32(&self.waiting, v)
}

func (self *Static) BuildPercentage() (uint8, bool) {
	p := atomic.LoadInt32(&self.percent)
	if p < 0 || p >= 100 {
		return 0, false
	}
	return uint8(p), true
}

// SetBuildPercentage, negative means unknown.
func (self *Static) SetBuildPercentage(p int) { atomic.StoreInt32(&self.percent, int32(p)) }

func (self *Static) Stops() int      { return int(atomic.LoadUint32(&self.stops)) }
func (self *Static) UserInputs() int { return int(atomic.LoadUint32(&self.userInputs)) }

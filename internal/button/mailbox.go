package button

import "go.uber.org/atomic"

// Mailbox is a single-slot handoff from scan context to tick context.
// At most one press is pending. Put over a pending press replaces it,
// so a second press before Take is coalesced into the latest one.
// Safe for one producer and one consumer without locks.
type Mailbox struct {
	// 0 = empty, otherwise Button+1
	slot atomic.Uint32
}

func (m *Mailbox) Put(b Button) { m.slot.Store(uint32(b) + 1) }

// Take returns pending press and empties the slot.
func (m *Mailbox) Take() (Button, bool) {
	v := m.slot.Swap(0)
	if v == 0 {
		return 0, false
	}
	return Button(v - 1), true
}

func (m *Mailbox) Pending() bool { return m.slot.Load() != 0 }

func (m *Mailbox) Clear() { m.slot.Store(0) }

// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"unsafe"
)

// Result reports how much of a Buffer an Aggregator absorbed.
type Result int

const (
	// Rejected means no region of the buffer was added.
	Rejected Result = iota
	// Partial means some regions were added before one was refused. The
	// added entries stay in the aggregator.
	Partial
	// Accepted means every region was added.
	Accepted
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Partial:
		return "partial"
	default:
		return "rejected"
	}
}

// Aggregator packs the regions of Buffers into an IovecTable under the table
// capacity and a byte budget. The first entry after Reset is always accepted,
// whatever its length, so a single oversized payload still makes progress.
//
// An Aggregator is owned by one goroutine and reused across batches.
type Aggregator struct {
	table    *IovecTable
	limits   Limits
	count    int
	size     int64
	maxBytes int64
	regions  []Region
	bufs     [][]byte
	inflight bool
	released bool
}

// NewAggregator maps a table of limits.MaxIovecs entries. The byte budget
// starts at limits.MaxBytes.
func NewAggregator(limits Limits, caps Capabilities) (*Aggregator, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}
	table, err := NewIovecTable(limits.MaxIovecs, limits.AddressSize, caps)
	if err != nil {
		return nil, err
	}
	return &Aggregator{
		table:    table,
		limits:   limits,
		maxBytes: limits.MaxBytes,
		bufs:     make([][]byte, 0, limits.MaxIovecs),
	}, nil
}

// Reset empties the aggregator. The table memory is kept.
func (a *Aggregator) Reset() {
	a.check()
	a.count = 0
	a.size = 0
	clear(a.bufs)
	a.bufs = a.bufs[:0]
}

// SetMaxBytes sets the byte budget for subsequent adds, clamped to the
// platform limit. A non-positive n panics with ErrMaxBytes.
func (a *Aggregator) SetMaxBytes(n int64) {
	a.check()
	if n <= 0 {
		panic(ErrMaxBytes)
	}
	a.maxBytes = min(n, a.limits.MaxBytes)
}

// MaxBytes returns the byte budget.
func (a *Aggregator) MaxBytes() int64 {
	a.check()
	return a.maxBytes
}

// Count returns the number of entries.
func (a *Aggregator) Count() int {
	a.check()
	return a.count
}

// Size returns the sum of the lengths of all entries.
func (a *Aggregator) Size() int64 {
	a.check()
	return a.size
}

// Cap returns the maximum number of entries.
func (a *Aggregator) Cap() int {
	a.check()
	return a.table.Cap()
}

// Add adds every region of b and reports whether all of them were absorbed.
// A false result does not mean nothing was added: the leading regions of a
// composite buffer may already be in the table. Use Append to tell apart.
// A buffer with no readable bytes adds nothing and reports true, even when
// the aggregator is full.
func (a *Aggregator) Add(b Buffer) bool {
	return a.Append(b) == Accepted
}

// Append adds the regions of b in order, stopping at the first region that
// does not fit. Zero-length regions are skipped. b must be Direct, and a
// region lying outside its Mem panics with ErrIndex before anything is added.
func (a *Aggregator) Append(b Buffer) Result {
	a.check()
	if !b.Direct() {
		panic(ErrNotDirect)
	}
	a.regions = b.AppendRegions(a.regions[:0])
	defer clear(a.regions)
	for _, r := range a.regions {
		if r.Offset < 0 || r.Len < 0 || r.Len > len(r.Mem)-r.Offset {
			panic(ErrIndex)
		}
	}
	added := 0
	for _, r := range a.regions {
		if r.Len == 0 {
			continue
		}
		if !a.add(r.Bytes()) {
			if added > 0 {
				return Partial
			}
			return Rejected
		}
		added++
	}
	return Accepted
}

func (a *Aggregator) add(p []byte) bool {
	n := len(p)
	if a.count == a.table.Cap() {
		return false
	}
	// The budget is enforced once there is an entry. Linux fails writev with
	// EINVAL when the total exceeds SSIZE_MAX.
	if a.count > 0 && a.maxBytes-int64(n) < a.size {
		return false
	}
	a.table.Put(a.count, uintptr(unsafe.Pointer(unsafe.SliceData(p))), n)
	a.bufs = append(a.bufs, p)
	a.count++
	a.size += int64(n)
	return true
}

// Address returns the native address of entry i, for passing to writev.
func (a *Aggregator) Address(i int) uintptr {
	a.check()
	return a.table.Address(i)
}

// Entry reads back entry i.
func (a *Aggregator) Entry(i int) (addr uintptr, n int) {
	a.check()
	return a.table.Entry(i)
}

// Buffers returns the accepted entries as byte slices, in table order. The
// slices are valid until the next Reset.
func (a *Aggregator) Buffers() [][]byte {
	a.check()
	return a.bufs
}

// Release unmaps the table. It panics with ErrInFlight while a write is
// reading it, and any later use panics with ErrReleased.
func (a *Aggregator) Release() error {
	a.check()
	if a.inflight {
		panic(ErrInFlight)
	}
	a.released = true
	a.regions = nil
	a.bufs = nil
	return a.table.Release()
}

func (a *Aggregator) check() {
	if a.released {
		panic(ErrReleased)
	}
}

// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// IovecTable is a fixed-capacity array of packed struct iovec entries held in
// native memory, so it can be handed to writev without another copy.
//
//	struct iovec {
//		void  *iov_base;
//		size_t iov_len;
//	};
//
// Both fields are width bytes wide, so one entry occupies 2*width bytes.
type IovecTable struct {
	mem      *native
	capacity int
	width    int
	store    entryStore
}

// entryStore writes and reads one packed entry at a byte offset of the table.
type entryStore interface {
	put(mem []byte, off, width int, addr uintptr, n int)
	get(mem []byte, off, width int) (uintptr, int)
}

// NewIovecTable maps a table of capacity entries of the given field width.
// The store strategy is chosen here from caps and never re-probed.
func NewIovecTable(capacity, width int, caps Capabilities) (*IovecTable, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrLimits, capacity)
	}
	if width != 4 && width != 8 {
		return nil, fmt.Errorf("%w: address size %d", ErrLimits, width)
	}
	mem, err := allocNative(capacity * 2 * width)
	if err != nil {
		return nil, fmt.Errorf("writev: map iovec table: %w", err)
	}
	t := &IovecTable{mem: mem, capacity: capacity, width: width}
	if caps.Unsafe {
		t.store = pointerStore{}
	} else {
		t.store = viewStore{}
	}
	return t, nil
}

// Cap returns the number of entries the table holds.
func (t *IovecTable) Cap() int {
	return t.capacity
}

// Width returns the size of one iovec field in bytes.
func (t *IovecTable) Width() int {
	return t.width
}

// Put writes the entry (addr, n) at slot i.
func (t *IovecTable) Put(i int, addr uintptr, n int) {
	t.store.put(t.live(), t.offset(i), t.width, addr, n)
}

// Entry reads back the entry at slot i.
func (t *IovecTable) Entry(i int) (addr uintptr, n int) {
	return t.store.get(t.live(), t.offset(i), t.width)
}

// Address returns the native address of the packed array starting at slot i.
func (t *IovecTable) Address(i int) uintptr {
	mem := t.live()
	return uintptr(unsafe.Pointer(unsafe.SliceData(mem))) + uintptr(t.offset(i))
}

// Release unmaps the table. Any later use panics with ErrReleased.
func (t *IovecTable) Release() error {
	t.live()
	return t.mem.free()
}

func (t *IovecTable) live() []byte {
	if t.mem.mem == nil {
		panic(ErrReleased)
	}
	return t.mem.mem
}

func (t *IovecTable) offset(i int) int {
	if i < 0 || i >= t.capacity {
		panic(ErrIndex)
	}
	return i * 2 * t.width
}

// pointerStore stores through raw pointers into the table.
type pointerStore struct{}

func (pointerStore) put(mem []byte, off, width int, addr uintptr, n int) {
	p := unsafe.Add(unsafe.Pointer(unsafe.SliceData(mem)), off)
	if width == 8 {
		*(*uint64)(p) = uint64(addr)
		*(*uint64)(unsafe.Add(p, 8)) = uint64(n)
		return
	}
	*(*uint32)(p) = uint32(addr)
	*(*uint32)(unsafe.Add(p, 4)) = uint32(n)
}

func (pointerStore) get(mem []byte, off, width int) (uintptr, int) {
	p := unsafe.Add(unsafe.Pointer(unsafe.SliceData(mem)), off)
	if width == 8 {
		return uintptr(*(*uint64)(p)), int(*(*uint64)(unsafe.Add(p, 8)))
	}
	return uintptr(*(*uint32)(p)), int(*(*uint32)(unsafe.Add(p, 4)))
}

// viewStore encodes through the table's byte view in native byte order.
type viewStore struct{}

func (viewStore) put(mem []byte, off, width int, addr uintptr, n int) {
	if width == 8 {
		binary.NativeEndian.PutUint64(mem[off:], uint64(addr))
		binary.NativeEndian.PutUint64(mem[off+8:], uint64(n))
		return
	}
	binary.NativeEndian.PutUint32(mem[off:], uint32(addr))
	binary.NativeEndian.PutUint32(mem[off+4:], uint32(n))
}

func (viewStore) get(mem []byte, off, width int) (uintptr, int) {
	if width == 8 {
		return uintptr(binary.NativeEndian.Uint64(mem[off:])), int(binary.NativeEndian.Uint64(mem[off+8:]))
	}
	return uintptr(binary.NativeEndian.Uint32(mem[off:])), int(binary.NativeEndian.Uint32(mem[off+4:]))
}

// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"io"
	"runtime"
	"unsafe"
)

// Region is one contiguous span of readable bytes: Len bytes starting
// Offset bytes into Mem.
type Region struct {
	Mem    []byte
	Offset int
	Len    int
}

// Address returns the address of the first byte of Mem.
func (r Region) Address() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(r.Mem)))
}

// Bytes returns the readable bytes of the region.
func (r Region) Bytes() []byte {
	return r.Mem[r.Offset : r.Offset+r.Len]
}

// Buffer is a logical payload backed by one or more contiguous regions.
type Buffer interface {
	// Len returns the number of readable bytes.
	Len() int
	// Direct reports whether every region has a stable native address.
	Direct() bool
	// AppendRegions appends the regions holding the readable bytes, in order.
	AppendRegions(dst []Region) []Region
	// Skip consumes n readable bytes from the front.
	Skip(n int)
}

// Releaser is implemented by buffers that hold memory to give back once they
// have been written.
type Releaser interface {
	Release()
}

// Heap returns a Buffer over Go heap memory. Its bytes are copied into scratch
// memory before they are written.
func Heap(p []byte) Buffer {
	return &heapBuffer{b: p}
}

type heapBuffer struct {
	b []byte
}

func (h *heapBuffer) Len() int { return len(h.b) }

func (h *heapBuffer) Direct() bool { return false }

func (h *heapBuffer) AppendRegions(dst []Region) []Region {
	return append(dst, Region{Mem: h.b, Len: len(h.b)})
}

func (h *heapBuffer) Skip(n int) { h.b = h.b[n:] }

// Composite returns a Buffer made of the regions of parts, in order.
func Composite(parts ...Buffer) Buffer {
	return &composite{parts: parts}
}

type composite struct {
	parts []Buffer
}

func (c *composite) Len() (n int) {
	for _, p := range c.parts {
		n += p.Len()
	}
	return
}

func (c *composite) Direct() bool {
	for _, p := range c.parts {
		if !p.Direct() {
			return false
		}
	}
	return true
}

func (c *composite) AppendRegions(dst []Region) []Region {
	for _, p := range c.parts {
		dst = p.AppendRegions(dst)
	}
	return dst
}

func (c *composite) Skip(n int) {
	for n > 0 && len(c.parts) > 0 {
		p := c.parts[0]
		l := p.Len()
		if l > n {
			p.Skip(n)
			return
		}
		n -= l
		if r, ok := p.(Releaser); ok {
			r.Release()
		}
		c.parts[0] = nil
		c.parts = c.parts[1:]
	}
}

func (c *composite) Release() {
	for i, p := range c.parts {
		if r, ok := p.(Releaser); ok {
			r.Release()
		}
		c.parts[i] = nil
	}
	c.parts = nil
}

// DirectBuffer is a natively addressable buffer: its memory is pinned for as
// long as the buffer is live, so its address may be stored in an iovec table.
type DirectBuffer struct {
	mem      []byte
	r, w     int
	pinner   runtime.Pinner
	free     func()
	released bool
}

// Wrap pins p and returns a DirectBuffer whose readable bytes are p.
func Wrap(p []byte) *DirectBuffer {
	d := newDirect(p, nil)
	d.w = len(p)
	return d
}

func newDirect(mem []byte, free func()) *DirectBuffer {
	d := &DirectBuffer{mem: mem, free: free}
	if cap(mem) > 0 {
		d.pinner.Pin(unsafe.SliceData(mem))
	}
	return d
}

// Write appends p to the readable bytes.
func (d *DirectBuffer) Write(p []byte) (n int, err error) {
	d.check()
	n = copy(d.mem[d.w:], p)
	d.w += n
	if n < len(p) {
		err = io.ErrShortBuffer
	}
	return
}

// Bytes returns the readable bytes.
func (d *DirectBuffer) Bytes() []byte {
	d.check()
	return d.mem[d.r:d.w]
}

// Len returns the number of readable bytes.
func (d *DirectBuffer) Len() int {
	return d.w - d.r
}

// Direct always reports true.
func (d *DirectBuffer) Direct() bool {
	return true
}

// AppendRegions appends the single region of d.
func (d *DirectBuffer) AppendRegions(dst []Region) []Region {
	d.check()
	return append(dst, Region{Mem: d.mem, Offset: d.r, Len: d.w - d.r})
}

// Skip consumes n readable bytes.
func (d *DirectBuffer) Skip(n int) {
	d.r += n
}

// Release unpins the memory and hands it back to its allocator. Releasing
// twice panics with ErrReleased.
func (d *DirectBuffer) Release() {
	d.check()
	d.released = true
	d.pinner.Unpin()
	if d.free != nil {
		d.free()
	}
	d.mem = nil
	d.r, d.w = 0, 0
}

func (d *DirectBuffer) check() {
	if d.released {
		panic(ErrReleased)
	}
}

// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"errors"
	"testing"
	"unsafe"
)

type entry struct {
	Addr uintptr
	Len  int
}

func expectPanic(t *testing.T, want error, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		if got := recover(); got != want {
			t.Errorf("panic %v, want %v", got, want)
		}
	}()
	f()
}

// wrap pins p for the duration of the test.
func wrap(t *testing.T, p []byte) *DirectBuffer {
	d := Wrap(p)
	t.Cleanup(func() {
		if !d.released {
			d.Release()
		}
	})
	return d
}

func sized(t *testing.T, n int) *DirectBuffer {
	return wrap(t, make([]byte, n))
}

func addressOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func newTestAggregator(t *testing.T, capacity int) *Aggregator {
	t.Helper()
	limits := PlatformLimits()
	limits.MaxIovecs = capacity
	agg, err := NewAggregator(limits, ProbeCapabilities())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if !agg.released {
			agg.Release()
		}
	})
	return agg
}

func entries(agg *Aggregator) []entry {
	var es []entry
	for i := 0; i < agg.Count(); i++ {
		addr, n := agg.Entry(i)
		es = append(es, entry{addr, n})
	}
	return es
}

// countingAllocator hands out heap-backed scratch buffers and counts releases.
type countingAllocator struct {
	scratch  []*DirectBuffer
	released int
}

func (a *countingAllocator) Scratch(size int) *DirectBuffer {
	d := newDirect(make([]byte, size), func() {
		a.released++
	})
	a.scratch = append(a.scratch, d)
	return d
}

// recordTarget captures the entries and bytes of each vectored write. It
// reads them back through the aggregator that filled the table.
type recordTarget struct {
	agg     *Aggregator
	calls   int
	entries []entry
	data    []byte
	err     error
	onWrite func()
}

func (r *recordTarget) WritevAddresses(base uintptr, count int) (int64, error) {
	r.calls++
	if base != r.agg.Address(0) || count != r.agg.Count() {
		return 0, errors.New("table mismatch")
	}
	var n int64
	for i, b := range r.agg.Buffers() {
		addr, l := r.agg.Entry(i)
		r.entries = append(r.entries, entry{addr, l})
		r.data = append(r.data, b...)
		n += int64(l)
	}
	if r.onWrite != nil {
		r.onWrite()
	}
	if r.err != nil {
		return 0, r.err
	}
	return n, nil
}

// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

// tracker owns the scratch copies made during one drain and releases each of
// them exactly once, after the write that reads them has returned.
type tracker struct {
	bufs    []*DirectBuffer
	regions []Region
}

// copyOf copies the readable bytes of b into a scratch buffer from alloc and
// records it. The copy is recorded before it is offered to the aggregator, so
// a rejected copy is released with the others. A scratch buffer too small
// for b panics with io.ErrShortBuffer.
func (t *tracker) copyOf(b Buffer, alloc Allocator) *DirectBuffer {
	d := alloc.Scratch(b.Len())
	t.bufs = append(t.bufs, d)
	t.regions = b.AppendRegions(t.regions[:0])
	defer clear(t.regions)
	for _, r := range t.regions {
		if _, err := d.Write(r.Bytes()); err != nil {
			panic(err)
		}
	}
	return d
}

// release releases every recorded buffer and returns how many there were.
func (t *tracker) release() int {
	n := len(t.bufs)
	for i, d := range t.bufs {
		t.bufs[i] = nil
		d.Release()
	}
	t.bufs = t.bufs[:0]
	return n
}

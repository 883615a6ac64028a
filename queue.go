// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

// Queue is an Outbound of Buffers. Added buffers become visible to drains
// once flushed. It is not safe for concurrent use.
type Queue struct {
	msgs    []interface{}
	flushed int
}

// Add appends msg after the pending messages.
func (q *Queue) Add(msg interface{}) {
	q.msgs = append(q.msgs, msg)
}

// Flush marks every added message as flushed.
func (q *Queue) Flush() {
	q.flushed = len(q.msgs)
}

// Len returns the number of flushed messages.
func (q *Queue) Len() int {
	return q.flushed
}

// Empty reports whether no flushed message is pending.
func (q *Queue) Empty() bool {
	return q.flushed == 0
}

// ForEachFlushed implements Outbound.
func (q *Queue) ForEachFlushed(visit func(msg interface{}) bool) {
	for _, msg := range q.msgs[:q.flushed] {
		if !visit(msg) {
			return
		}
	}
}

// RemoveBytes consumes n written bytes from the front of the flushed
// messages. Buffers written in full are removed and released; a partially
// written buffer skips its written prefix. Leading empty buffers are removed
// even when n is zero.
func (q *Queue) RemoveBytes(n int64) {
	removed := 0
	for _, msg := range q.msgs[:q.flushed] {
		b, ok := msg.(Buffer)
		if !ok {
			break
		}
		l := int64(b.Len())
		if l > n {
			b.Skip(int(n))
			break
		}
		n -= l
		if r, ok := b.(Releaser); ok {
			r.Release()
		}
		removed++
	}
	if removed == 0 {
		return
	}
	rest := copy(q.msgs, q.msgs[removed:])
	clear(q.msgs[rest:])
	q.msgs = q.msgs[:rest]
	q.flushed -= removed
}

// Discard removes every message, releasing the buffers that implement Releaser.
func (q *Queue) Discard() {
	for _, msg := range q.msgs {
		if r, ok := msg.(Releaser); ok {
			r.Release()
		}
	}
	clear(q.msgs)
	q.msgs = q.msgs[:0]
	q.flushed = 0
}

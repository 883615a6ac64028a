// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

// Package writev implements vectored writes of queued buffers.
//
// An Aggregator packs the regions of Buffers into a native iovec table under
// the platform entry and byte limits. An Invoker drains a queue into the
// aggregator, copying heap payloads into pinned scratch memory, and issues a
// single writev per drain. Writer puts both behind an io.WriteCloser.
package writev

import (
	"errors"
	"io"
)

// errNoDescriptor is returned by a writer target asked for a native writev.
var errNoDescriptor = errors.New("writev: writer has no file descriptor")

var _ BuffersTarget = (*writerTarget)(nil)

// writerTarget writes the entries as ordered Writes, for writers without a
// file descriptor.
type writerTarget struct {
	w io.Writer
}

// WritevAddresses fails: the table holds native addresses that cannot be
// turned back into Go memory. The Invoker calls WriteBuffers instead.
func (t *writerTarget) WritevAddresses(base uintptr, count int) (int64, error) {
	return 0, errNoDescriptor
}

func (t *writerTarget) WriteBuffers(bufs [][]byte) (n int64, err error) {
	for _, b := range bufs {
		var written int
		written, err = writeFull(t.w, b)
		n += int64(written)
		if err != nil {
			return
		}
	}
	return n, nil
}

func writeFull(w io.Writer, b []byte) (n int, err error) {
	var remain = len(b)
	for remain > 0 {
		var written int
		written, err = w.Write(b[len(b)-remain:])
		if written > 0 {
			remain -= written
		}
		if err != nil {
			return len(b) - remain, err
		}
		if written == 0 {
			return len(b) - remain, io.ErrShortWrite
		}
	}
	return len(b), nil
}

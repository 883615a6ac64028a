// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"go.uber.org/zap"
)

// Outbound is a queue of pending messages.
type Outbound interface {
	// ForEachFlushed visits the flushed messages in submission order until
	// visit returns false.
	ForEachFlushed(visit func(msg interface{}) bool)
}

// Target performs one vectored write of count packed iovec entries starting
// at base, and returns the number of bytes written.
type Target interface {
	WritevAddresses(base uintptr, count int) (int64, error)
}

// BuffersTarget is a Target without a native writev. The Invoker hands it
// the accepted entries as byte slices instead of the table address.
type BuffersTarget interface {
	Target
	WriteBuffers(bufs [][]byte) (int64, error)
}

// Invoker drains an Outbound queue into an Aggregator and issues one
// vectored write per drain.
type Invoker struct {
	agg    *Aggregator
	tmp    tracker
	logger *zap.Logger
}

// NewInvoker returns an Invoker filling agg. A nil logger disables logging.
func NewInvoker(agg *Aggregator, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{agg: agg, logger: logger}
}

// Aggregator returns the aggregator the invoker fills.
func (v *Invoker) Aggregator() *Aggregator {
	return v.agg
}

// DrainAndWrite adds the flushed Buffers of q to the aggregator until one
// does not fit, then writes them to t with a single call. Buffers without a
// native address are copied into scratch memory from alloc first.
//
// It returns -1 without calling t when nothing was eligible. Otherwise it
// returns what t returned. Scratch copies are released after t returns,
// on every path. The aggregator must be empty on entry and is left filled
// for the caller to inspect and Reset.
func (v *Invoker) DrainAndWrite(t Target, q Outbound, alloc Allocator) (n int64, err error) {
	if v.agg.Count() != 0 {
		panic(ErrNotEmpty)
	}
	defer func() {
		v.agg.inflight = false
		if copies := v.tmp.release(); copies > 0 {
			v.logger.Debug("released scratch copies", zap.Int("copies", copies))
		}
	}()
	q.ForEachFlushed(func(msg interface{}) bool {
		b, ok := msg.(Buffer)
		if !ok {
			return false
		}
		if b.Direct() {
			return v.agg.Add(b)
		}
		if b.Len() == 0 {
			return true
		}
		return v.agg.Add(v.tmp.copyOf(b, alloc))
	})
	count := v.agg.Count()
	if count == 0 {
		return -1, nil
	}
	v.agg.inflight = true
	if bt, ok := t.(BuffersTarget); ok {
		n, err = bt.WriteBuffers(v.agg.Buffers())
	} else {
		n, err = t.WritevAddresses(v.agg.Address(0), count)
	}
	if err != nil {
		v.logger.Warn("writev failed",
			zap.Int("iovecs", count),
			zap.Int64("size", v.agg.Size()),
			zap.Error(err))
		return n, err
	}
	v.logger.Debug("writev",
		zap.Int("iovecs", count),
		zap.Int64("size", v.agg.Size()),
		zap.Int64("written", n))
	return n, nil
}

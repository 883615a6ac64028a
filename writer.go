// Copyright (c) 2020 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"errors"
	"io"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/hslam/atomic"
	"go.uber.org/zap"
)

// ErrWriterClosed is returned by the Writer's Write methods after a call to Close.
var ErrWriterClosed = errors.New("Writer closed")

// Flusher is the interface that wraps the basic Flush method.
//
// Flush writes any buffered data to the underlying io.Writer.
type Flusher interface {
	Flush() (err error)
}

var _ Flusher = (*Writer)(nil)

// Writer implements batch vectored writing for an io.Writer object.
//
// Written data is queued and a background goroutine sends as much of the
// queue as fits in one writev at a time. Once more than MaxBuffered bytes are
// queued, Write flushes inline before queueing more. A write error is sticky:
// it is returned by every later Write, WriteBuffer and Flush.
type Writer struct {
	lock    sync.Mutex
	cond    sync.Cond
	target  Target
	invoker *Invoker
	queue   Queue
	alloc   Allocator
	logger  *zap.Logger
	retries uint64
	maxBuf  int64
	err     error
	written *atomic.Int64
	pending *atomic.Int64
	closed  *atomic.Int32
	done    *atomic.Int32
}

// NewWriter returns a new batch Writer configured by cfg. A nil cfg takes
// the platform defaults.
func NewWriter(writer io.Writer, cfg *Config) (*Writer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	target, err := NewTarget(writer)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.GetLogger()
	if err != nil {
		return nil, err
	}
	agg, err := cfg.NewAggregator()
	if err != nil {
		return nil, err
	}
	alloc := DefaultAllocator
	if cfg.PageSize > 0 {
		alloc = NewPoolAllocator(cfg.PageSize)
	}
	w := &Writer{
		target:  target,
		invoker: NewInvoker(agg, logger),
		alloc:   alloc,
		logger:  logger,
		retries: cfg.Retries,
		maxBuf:  cfg.MaxBuffered,
		written: atomic.NewInt64(0),
		pending: atomic.NewInt64(0),
		closed:  atomic.NewInt32(0),
		done:    atomic.NewInt32(0),
	}
	w.cond.L = &w.lock
	go w.run()
	return w, nil
}

// Write copies p into scratch memory and queues it, flushing inline first
// when the queue would grow past MaxBuffered bytes.
// It returns the number of bytes queued.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.closed.Load() > 0 {
		return 0, ErrWriterClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	d := w.alloc.Scratch(len(p))
	if _, err = d.Write(p); err != nil {
		d.Release()
		panic(err)
	}
	if err = w.enqueue(d); err != nil {
		d.Release()
		return 0, err
	}
	return len(p), nil
}

// WriteBuffer queues b without copying it. On success the Writer owns b and
// releases it once written if it implements Releaser.
func (w *Writer) WriteBuffer(b Buffer) error {
	if w.closed.Load() > 0 {
		return ErrWriterClosed
	}
	return w.enqueue(b)
}

func (w *Writer) enqueue(b Buffer) error {
	w.lock.Lock()
	err := w.err
	if w.closed.Load() > 0 {
		err = ErrWriterClosed
	}
	if err == nil && w.maxBuf > 0 && !w.queue.Empty() && w.pending.Load()+int64(b.Len()) > w.maxBuf {
		err = w.flush()
	}
	if err == nil {
		w.queue.Add(b)
		w.queue.Flush()
		w.pending.Add(int64(b.Len()))
	}
	w.lock.Unlock()
	if err == nil {
		w.cond.Signal()
	}
	return err
}

// Buffered returns the number of queued bytes not yet written.
func (w *Writer) Buffered() int64 {
	return w.pending.Load()
}

// Written returns the number of bytes written to the underlying io.Writer.
func (w *Writer) Written() int64 {
	return w.written.Load()
}

// Flush writes any queued data to the underlying io.Writer.
func (w *Writer) Flush() error {
	w.lock.Lock()
	err := w.flush()
	w.lock.Unlock()
	return err
}

func (w *Writer) flush() error {
	if w.err != nil {
		return w.err
	}
	for !w.queue.Empty() {
		queued := w.queue.Len()
		n, err := w.drain()
		if err != nil {
			w.err = err
			w.logger.Error("flush failed", zap.Int("pending", queued), zap.Error(err))
			return err
		}
		if n < 0 {
			n = 0
		}
		w.queue.RemoveBytes(n)
		w.written.Add(n)
		w.pending.Add(-n)
		if n == 0 && w.queue.Len() == queued {
			break
		}
	}
	return nil
}

// drain issues one writev, retrying while the target would block.
func (w *Writer) drain() (n int64, err error) {
	agg := w.invoker.Aggregator()
	op := func() error {
		agg.Reset()
		var werr error
		n, werr = w.invoker.DrainAndWrite(w.target, &w.queue, w.alloc)
		if werr != nil && !errors.Is(werr, syscall.EAGAIN) {
			return backoff.Permanent(werr)
		}
		return werr
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Microsecond * 64
	err = backoff.Retry(op, backoff.WithMaxRetries(b, w.retries))
	return n, err
}

func (w *Writer) run() {
	for {
		w.lock.Lock()
		w.flush()
		w.cond.Wait()
		if w.closed.Load() > 0 {
			w.lock.Unlock()
			w.done.Store(1)
			return
		}
		w.lock.Unlock()
	}
}

// Close flushes the writer and releases its iovec table, but does not close
// the underlying io.Writer.
func (w *Writer) Close() (err error) {
	if !w.closed.CompareAndSwap(0, 1) {
		return nil
	}
	err = w.Flush()
	for {
		w.cond.Signal()
		time.Sleep(time.Microsecond * 100)
		if w.done.Load() > 0 {
			break
		}
	}
	w.lock.Lock()
	w.queue.Discard()
	w.pending.Store(0)
	w.invoker.Aggregator().Release()
	w.lock.Unlock()
	return err
}

// Copyright (c) 2020 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/hslam/inproc"
)

func reader(r io.Reader, size *int, done chan struct{}) {
	buf := make([]byte, 65536)
	for {
		n, err := r.Read(buf)
		*size += n
		if err != nil {
			break
		}
	}
	close(done)
}

func writeConcurrently(t *testing.T, writer *Writer, goroutines int) {
	msg := make([]byte, 512)
	wg := sync.WaitGroup{}
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, err := writer.Write(msg); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestWriterPipe(t *testing.T) {
	r, w := io.Pipe()
	size := 0
	done := make(chan struct{})
	go reader(r, &size, done)
	writer, err := NewWriter(w, nil)
	if err != nil {
		t.Fatal(err)
	}
	writeConcurrently(t, writer, 64)
	writer.Close()
	w.Close()
	<-done
	if size != 512*100*64 {
		t.Error(size)
	}
	if writer.Written() != 512*100*64 {
		t.Error(writer.Written())
	}
}

func TestWriterMaxBuffered(t *testing.T) {
	r, w := io.Pipe()
	cfg := DefaultConfig()
	cfg.MaxBuffered = 64
	writer, err := NewWriter(w, cfg)
	if err != nil {
		t.Fatal(err)
	}
	const count = 20
	msg := make([]byte, 32)
	wrote := make(chan struct{})
	go func() {
		defer close(wrote)
		for i := 0; i < count; i++ {
			if _, err := writer.Write(msg); err != nil {
				t.Error(err)
				return
			}
			if n := writer.Buffered(); n > cfg.MaxBuffered {
				t.Errorf("%d bytes buffered", n)
			}
		}
	}()
	time.Sleep(time.Millisecond * 50)
	select {
	case <-wrote:
		t.Fatal("writes did not wait for the reader")
	default:
	}
	if n := writer.Buffered(); n > cfg.MaxBuffered {
		t.Errorf("%d bytes buffered", n)
	}
	size := 0
	done := make(chan struct{})
	go reader(r, &size, done)
	<-wrote
	if err := writer.Flush(); err != nil {
		t.Error(err)
	}
	if writer.Buffered() != 0 {
		t.Error(writer.Buffered())
	}
	writer.Close()
	w.Close()
	<-done
	if size != 32*count {
		t.Error(size)
	}
}

func TestWriterFile(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	size := 0
	done := make(chan struct{})
	go reader(r, &size, done)
	writer, err := NewWriter(w, nil)
	if err != nil {
		t.Fatal(err)
	}
	writeConcurrently(t, writer, 16)
	if err := writer.Close(); err != nil {
		t.Error(err)
	}
	w.Close()
	<-done
	r.Close()
	if size != 512*100*16 {
		t.Error(size)
	}
}

func TestWriterInproc(t *testing.T) {
	const address = "writev-test:9999"
	lis, err := inproc.Listen(address)
	if err != nil {
		t.Fatal(err)
	}
	defer lis.Close()
	const total = 512 * 100 * 8
	size := 0
	done := make(chan struct{})
	go func() {
		conn, err := lis.Accept()
		if err != nil {
			close(done)
			return
		}
		defer conn.Close()
		buf := make([]byte, 65536)
		for size < total {
			n, err := conn.Read(buf)
			size += n
			if err != nil {
				break
			}
		}
		close(done)
	}()
	conn, err := inproc.Dial(address)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, ok := conn.(syscall.Conn); ok {
		t.Fatal("inproc conn exposes a descriptor")
	}
	writer, err := NewWriter(conn, nil)
	if err != nil {
		t.Fatal(err)
	}
	writeConcurrently(t, writer, 8)
	writer.Close()
	<-done
	if size != total {
		t.Error(size)
	}
}

func TestWriterLimits(t *testing.T) {
	testLimits(1, 0, t)
	testLimits(2, 0, t)
	testLimits(16, 512*4+1, t)
	testLimits(IOV_MAX, 1, t)
	testLimits(IOV_MAX, 512*32+1, t)
}

func testLimits(maxIovecs int, maxBytes int64, t *testing.T) {
	r, w := io.Pipe()
	size := 0
	done := make(chan struct{})
	go reader(r, &size, done)
	cfg := DefaultConfig()
	cfg.MaxIovecs = maxIovecs
	cfg.MaxBytes = maxBytes
	cfg.PageSize = 512
	writer, err := NewWriter(w, cfg)
	if err != nil {
		t.Fatal(err)
	}
	writeConcurrently(t, writer, 16)
	writer.Close()
	writer.Close()
	w.Close()
	<-done
	if size != 512*100*16 {
		t.Error(maxIovecs, maxBytes, size)
	}
}

func TestWriterWriteBuffer(t *testing.T) {
	r, w := io.Pipe()
	var got []byte
	done := make(chan struct{})
	go func() {
		got, _ = io.ReadAll(r)
		close(done)
	}()
	writer, err := NewWriter(w, nil)
	if err != nil {
		t.Fatal(err)
	}
	bufs := []Buffer{
		Heap([]byte("heap ")),
		Wrap([]byte("direct ")),
		Composite(Wrap([]byte("com")), Heap([]byte("posite"))),
	}
	for _, b := range bufs {
		if err := writer.WriteBuffer(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Flush(); err != nil {
		t.Fatal(err)
	}
	writer.Close()
	w.Close()
	<-done
	if string(got) != "heap direct composite" {
		t.Error(string(got))
	}
}

func TestWriterClosed(t *testing.T) {
	_, w := io.Pipe()
	writer, err := NewWriter(w, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Error(err)
	}
	if _, err := writer.Write([]byte("late")); err != ErrWriterClosed {
		t.Error(err)
	}
	if err := writer.WriteBuffer(Heap([]byte("late"))); err != ErrWriterClosed {
		t.Error(err)
	}
}

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) {
	return 0, net.ErrClosed
}

func TestWriterStickyError(t *testing.T) {
	writer, err := NewWriter(errWriter{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	writer.Write([]byte("lost"))
	if err := writer.Flush(); !errors.Is(err, net.ErrClosed) {
		t.Fatal(err)
	}
	if _, err := writer.Write([]byte("again")); !errors.Is(err, net.ErrClosed) {
		t.Error(err)
	}
	if err := writer.Close(); !errors.Is(err, net.ErrClosed) {
		t.Error(err)
	}
}

func TestWriterAddressSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AddressSize = 12 - AddressSize
	if _, err := NewWriter(io.Discard, cfg); !errors.Is(err, ErrLimits) {
		t.Error(err)
	}
}

// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd
// +build linux darwin dragonfly freebsd netbsd openbsd

package writev

import (
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// FD is a Target writing to a raw file descriptor. EAGAIN on a non-blocking
// descriptor is returned to the caller.
type FD int

// WritevAddresses implements Target.
func (fd FD) WritevAddresses(base uintptr, count int) (int64, error) {
	n, e := writevFd(int(fd), base, count)
	if e != 0 {
		return n, os.NewSyscallError("writev", e)
	}
	return n, nil
}

// NewTarget returns a Target for w. Files and sockets are written with
// writev through their raw connection, parking on EAGAIN; other writers get
// one Write per entry.
func NewTarget(w io.Writer) (Target, error) {
	if sc, ok := w.(syscall.Conn); ok {
		rc, err := sc.SyscallConn()
		if err != nil {
			return nil, err
		}
		return &connTarget{rc: rc}, nil
	}
	return &writerTarget{w: w}, nil
}

type connTarget struct {
	rc syscall.RawConn
}

func (c *connTarget) WritevAddresses(base uintptr, count int) (n int64, err error) {
	var e unix.Errno
	err = c.rc.Write(func(fd uintptr) bool {
		n, e = writevFd(int(fd), base, count)
		return e != unix.EAGAIN
	})
	if err != nil {
		return n, err
	}
	if e != 0 {
		return n, os.NewSyscallError("writev", e)
	}
	return n, nil
}

func writevFd(fd int, base uintptr, count int) (int64, unix.Errno) {
	for {
		r, _, e := unix.Syscall(unix.SYS_WRITEV, uintptr(fd), base, uintptr(count))
		if e == unix.EINTR {
			continue
		}
		if e != 0 {
			return 0, e
		}
		return int64(r), 0
	}
}

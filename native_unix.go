// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd
// +build linux darwin dragonfly freebsd netbsd openbsd

package writev

import (
	"golang.org/x/sys/unix"
)

// native is memory outside the Go heap, so its address is stable and may be
// held as a uintptr.
type native struct {
	mem []byte
}

func allocNative(size int) (*native, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &native{mem: mem}, nil
}

func (n *native) free() error {
	err := unix.Munmap(n.mem)
	n.mem = nil
	return err
}

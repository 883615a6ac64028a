// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd
// +build !linux,!darwin,!dragonfly,!freebsd,!netbsd,!openbsd

package writev

import (
	"runtime"
	"unsafe"
)

// native is a pinned Go allocation standing in for off-heap memory.
type native struct {
	mem    []byte
	pinner runtime.Pinner
}

func allocNative(size int) (*native, error) {
	n := &native{mem: make([]byte, size)}
	n.pinner.Pin(unsafe.SliceData(n.mem))
	return n, nil
}

func (n *native) free() error {
	n.pinner.Unpin()
	n.mem = nil
	return nil
}

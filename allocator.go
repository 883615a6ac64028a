// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"github.com/hslam/buffer"
)

// DefaultAllocator hands out scratch buffers from size-classed pools.
var DefaultAllocator Allocator = NewPoolAllocator(1024)

// Allocator supplies natively addressable scratch buffers.
type Allocator interface {
	// Scratch returns an empty DirectBuffer able to hold size bytes.
	Scratch(size int) *DirectBuffer
}

// PoolAllocator is an Allocator backed by pools of page-rounded buffers.
type PoolAllocator struct {
	buffers *buffer.Buffers
}

// NewPoolAllocator returns a PoolAllocator whose size classes are multiples of pageSize.
func NewPoolAllocator(pageSize int) *PoolAllocator {
	if pageSize < 1 {
		pageSize = 1024
	}
	return &PoolAllocator{buffers: buffer.NewBuffers(pageSize)}
}

// Scratch implements Allocator. The buffer returns to its pool on Release.
func (a *PoolAllocator) Scratch(size int) *DirectBuffer {
	if size <= 0 {
		return newDirect(nil, nil)
	}
	pool := a.buffers.AssignPool(size)
	mem := pool.GetBuffer(size)
	return newDirect(mem[:size], func() {
		pool.PutBuffer(mem)
	})
}

// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"fmt"
	"math"
	"unsafe"
)

const (
	// IOV_MAX is the maximum number of iovec entries one writev call accepts.
	IOV_MAX = 1024
	// SSIZE_MAX is the largest byte count one writev call may be asked to write.
	SSIZE_MAX = math.MaxInt
)

// AddressSize is the width in bytes of a native address, 8 on 64 bits and 4 on 32 bits.
const AddressSize = int(unsafe.Sizeof(uintptr(0)))

// Limits bounds a single vectored write.
type Limits struct {
	// MaxIovecs is the number of entries the iovec table can hold.
	MaxIovecs int
	// MaxBytes is the largest byte budget an aggregator accepts.
	MaxBytes int64
	// AddressSize is the width of both iovec fields, 4 or 8.
	AddressSize int
}

// PlatformLimits returns the limits of the running platform.
func PlatformLimits() Limits {
	return Limits{
		MaxIovecs:   IOV_MAX,
		MaxBytes:    SSIZE_MAX,
		AddressSize: AddressSize,
	}
}

func (l Limits) validate() error {
	if l.MaxIovecs <= 0 {
		return fmt.Errorf("%w: max iovecs %d", ErrLimits, l.MaxIovecs)
	}
	if l.MaxBytes <= 0 {
		return fmt.Errorf("%w: max bytes %d", ErrLimits, l.MaxBytes)
	}
	// The kernel reads iovecs of platform width only. Narrower fields would
	// truncate every address.
	if l.AddressSize != AddressSize {
		return fmt.Errorf("%w: address size %d on a %d byte platform", ErrLimits, l.AddressSize, AddressSize)
	}
	return nil
}

// Capabilities are host properties resolved once and passed to NewIovecTable.
type Capabilities struct {
	// Unsafe selects raw pointer stores into the iovec table instead of
	// encoding/binary writes through a byte view.
	Unsafe bool
}

// ProbeCapabilities returns the capabilities of this build.
func ProbeCapabilities() Capabilities {
	return Capabilities{Unsafe: hasUnsafe}
}

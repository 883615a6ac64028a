// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd
// +build !linux,!darwin,!dragonfly,!freebsd,!netbsd,!openbsd

package writev

import (
	"io"
)

// NewTarget returns a Target issuing one Write per entry, since this
// platform has no writev.
func NewTarget(w io.Writer) (Target, error) {
	return &writerTarget{w: w}, nil
}

// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import "errors"

var (
	// ErrLimits is returned when limits or a table geometry are invalid.
	ErrLimits = errors.New("writev: invalid limits")

	// The errors below are panic values. They mark caller contract
	// violations and are never returned.

	// ErrReleased is raised by any use of a table, aggregator or buffer after Release.
	ErrReleased = errors.New("writev: use after release")
	// ErrInFlight is raised by Release while a vectored write is reading the table.
	ErrInFlight = errors.New("writev: release during an in-flight write")
	// ErrNotDirect is raised when a buffer without a stable native address is added.
	ErrNotDirect = errors.New("writev: buffer is not natively addressable")
	// ErrNotEmpty is raised when a drain starts on an aggregator holding entries.
	ErrNotEmpty = errors.New("writev: drain on a non-empty aggregator")
	// ErrMaxBytes is raised by a non-positive byte budget.
	ErrMaxBytes = errors.New("writev: byte budget must be positive")
	// ErrIndex is raised by an entry index outside the table.
	ErrIndex = errors.New("writev: iovec index out of range")
)

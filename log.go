// Copyright (c) 2023 Meng Huang (mhboy@outlook.com)
// This package is licensed under a MIT license that can be found in the LICENSE file.

package writev

import (
	"strings"

	"go.uber.org/zap"
)

// NewLogger builds a logger for mode: "prod" or "production" for JSON output
// at info level, "dev" or "development" for console output at debug level,
// and anything else for a no-op logger.
func NewLogger(mode string) (*zap.Logger, error) {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return zap.NewProductionConfig().Build()
	case "dev", "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	default:
		return zap.NewNop(), nil
	}
}

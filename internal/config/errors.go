// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package config

import "errors"

// Sentinel errors for RuntimeParams.Validate, declared as package-level
// errors.New values.
var (
	errScriptPathRequired       = errors.New("config: script path is required")
	errRateMustBePositive       = errors.New("config: rate must be positive")
	errDurationMustBePositive   = errors.New("config: duration must be positive")
	errStatsPeriodMustBePositive = errors.New("config: stats period must be positive")
)

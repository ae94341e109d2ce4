// Questlog - Steam Achievement Tracking and Library Progress
// Copyright 2026 Questlog contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/questlog-app/questlog

package steam

import "errors"

// ErrNoCredentials marks a Web API call attempted without a configured API
// key and Steam user id. The provider translates this into payload-carried
// errors before it reaches the engine.
var ErrNoCredentials = errors.New("steam: credentials not configured")

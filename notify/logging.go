/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package notify

import "github.com/humaidq/hypertrack/logging"

var logger = logging.Logger(logging.SourceNotify)

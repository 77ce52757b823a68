/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package whatsapp

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/humaidq/hypertrack/logging"
	waLog "go.mau.fi/whatsmeow/util/log"
)

var logger = logging.Logger(logging.SourceWhatsApp)

// waLogger forwards whatsmeow's printf-style logging into the structured
// logger. Debug output from the protocol layer is very chatty, so it is
// dropped unless verbose is set.
type waLogger struct {
	base    *log.Logger
	module  string
	verbose bool
}

func newWALogger(module string, verbose bool) waLog.Logger {
	return &waLogger{base: logger, module: module, verbose: verbose}
}

func (w *waLogger) withModule() *log.Logger {
	if w.module == "" {
		return w.base
	}
	return w.base.With("module", w.module)
}

func (w *waLogger) Errorf(msg string, args ...interface{}) {
	w.withModule().Error(fmt.Sprintf(msg, args...))
}
func (w *waLogger) Warnf(msg string, args ...interface{}) {
	w.withModule().Warn(fmt.Sprintf(msg, args...))
}
func (w *waLogger) Infof(msg string, args ...interface{}) {
	w.withModule().Info(fmt.Sprintf(msg, args...))
}
func (w *waLogger) Debugf(msg string, args ...interface{}) {
	if !w.verbose {
		return
	}
	w.withModule().Debug(fmt.Sprintf(msg, args...))
}

func (w *waLogger) Sub(module string) waLog.Logger {
	if w.module == "" {
		return &waLogger{base: w.base, module: module, verbose: w.verbose}
	}
	return &waLogger{base: w.base, module: w.module + "/" + module, verbose: w.verbose}
}

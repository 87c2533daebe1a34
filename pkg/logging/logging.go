// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging holds the printf-style log helpers used across the toolkit.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	log = newLogger(os.Stderr)

	levelNames = map[logrus.Level]string{
		logrus.DebugLevel: "DEBUG",
		logrus.InfoLevel:  "INFO",
		logrus.WarnLevel:  "WARN",
		logrus.ErrorLevel: "ERROR",
		logrus.FatalLevel: "FATAL",
	}

	levelColors = map[logrus.Level]*color.Color{
		logrus.DebugLevel: color.New(color.FgHiBlack),
		logrus.InfoLevel:  color.New(color.FgGreen),
		logrus.WarnLevel:  color.New(color.FgYellow),
		logrus.ErrorLevel: color.New(color.FgRed),
		logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	}
)

// prefixFormatter prints "LEVEL message" lines, colouring the level when
// the output is a terminal.
type prefixFormatter struct {
	colored bool
}

func (f *prefixFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := fmt.Sprintf("%-5s", levelNames[entry.Level])
	if c, ok := levelColors[entry.Level]; ok && f.colored {
		level = c.Sprint(level)
	}
	return []byte(fmt.Sprintf("%s %s\n", level, entry.Message)), nil
}

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&prefixFormatter{colored: isTerminal(out)})
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetOutput redirects all log output. Colour is disabled unless w is a terminal.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
	log.SetFormatter(&prefixFormatter{colored: isTerminal(w)})
}

// SetVerbose enables debug messages.
func SetVerbose(verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
		return
	}
	log.SetLevel(logrus.InfoLevel)
}

// Debug logs a message visible only in verbose mode.
func Debug(f string, a ...any) {
	log.Debugf(f, a...)
}

// Info logs an informational message.
func Info(f string, a ...any) {
	log.Infof(f, a...)
}

// Warn logs a warning.
func Warn(f string, a ...any) {
	log.Warnf(f, a...)
}

// Error logs an error without exiting.
func Error(f string, a ...any) {
	log.Errorf(f, a...)
}

// Fatal logs the message and exits with status 1.
func Fatal(f string, a ...any) {
	log.Fatalf(f, a...)
}

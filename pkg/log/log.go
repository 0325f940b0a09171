// Copyright 2025 The Arcan Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides structured logging for the discovery services. It is a
// thin wrapper around zap that exposes loggers as key/value pair loggers and
// allows attaching them to contexts.
package log

import (
	"os"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is an alias to the zap log level.
type Level = zapcore.Level

// Logger describes the logger interface.
type Logger interface {
	// New returns a child logger with the given key/value context attached.
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	// Enabled returns whether the logger emits messages at the given level.
	Enabled(lvl Level) bool
}

type logger struct {
	logger *zap.Logger
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(lvl)
}

func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fields = append(fields, zap.Any(ctx[i].(string), ctx[i+1]))
	}
	return fields
}

var root = &logger{logger: zap.NewNop()}

// Setup configures the package-level root logger. It must be called before any
// other goroutine uses the package; later calls replace the root logger.
func Setup(cfg Config) error {
	cfg.InitDefaults()
	zCfg, err := cfg.Console.zapConfig()
	if err != nil {
		return err
	}
	zLogger, err := zCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	root = &logger{logger: zLogger}
	return nil
}

// Root returns the root logger. It is never nil; before Setup is called it
// discards all messages.
func Root() Logger {
	return root
}

// Discard sets the root logger to discard all messages. Useful in tests.
func Discard() {
	root = &logger{logger: zap.NewNop()}
}

// New returns a child of the root logger with the given context attached.
func New(ctx ...any) Logger {
	return Root().New(ctx...)
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) {
	Root().Debug(msg, ctx...)
}

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) {
	Root().Info(msg, ctx...)
}

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) {
	Root().Error(msg, ctx...)
}

// Flush writes out buffered log entries.
func Flush() {
	_ = root.logger.Sync()
}

// HandlePanic catches panics and logs them. Every goroutine must have this as
// its first deferred call.
func HandlePanic() {
	if msg := recover(); msg != nil {
		Root().Error("Panic", "msg", msg, "stack", string(debug.Stack()))
		Flush()
		os.Exit(255)
	}
}

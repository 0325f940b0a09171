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

package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the configuration for the logger.
type Config struct {
	Console ConsoleConfig `toml:"console,omitempty"`
}

// ConsoleConfig is the configuration for the console logger.
type ConsoleConfig struct {
	// Level of console logging (debug, info, error).
	Level string `toml:"level,omitempty"`
	// Format of the console logging (human, json).
	Format string `toml:"format,omitempty"`
	// DisableCaller stops annotating logs with the calling function's file
	// name and line number.
	DisableCaller bool `toml:"disable_caller,omitempty"`
}

// InitDefaults populates unset fields to their default values.
func (c *Config) InitDefaults() {
	if c.Console.Level == "" {
		c.Console.Level = "info"
	}
	if c.Console.Format == "" {
		c.Console.Format = "human"
	}
}

// Validate validates that the logging config is valid.
func (c *Config) Validate() error {
	if _, err := c.Console.zapConfig(); err != nil {
		return err
	}
	return nil
}

func (c *ConsoleConfig) zapConfig() (zap.Config, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return zap.Config{}, fmt.Errorf("unsupported log level: %q", c.Level)
	}
	encoding := "console"
	if c.Format == "json" {
		encoding = "json"
	} else if c.Format != "" && c.Format != "human" {
		return zap.Config{}, fmt.Errorf("unsupported log format: %q", c.Format)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableCaller:     c.DisableCaller,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}, nil
}

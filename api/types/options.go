/*
 * Copyright 2024 The QuickAction Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import "time"

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithOnDebug is an option that sets the resolution debug callback of the Config.
func WithOnDebug(onDebug func(kind ActionKind, item Item, included bool, reason string)) Option {
	return func(c *Config) error {
		c.OnDebug = onDebug
		return nil
	}
}

// WithBaselineEdit is an option that sets the baseline edit policy of the Config.
func WithBaselineEdit(enabled bool) Option {
	return func(c *Config) error {
		c.BaselineEdit = enabled
		return nil
	}
}

// WithScriptMaxExecutionTime is an option that sets the hook script max execution time of the Config.
func WithScriptMaxExecutionTime(scriptMaxExecutionTime time.Duration) Option {
	return func(c *Config) error {
		c.ScriptMaxExecutionTime = scriptMaxExecutionTime
		return nil
	}
}

// WithLogger is an option that sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithProperties is an option that sets the global properties of the Config.
func WithProperties(properties Metadata) Option {
	return func(c *Config) error {
		c.Properties = properties
		return nil
	}
}

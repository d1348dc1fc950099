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

// Config defines the configuration for the action resolution engine.
type Config struct {
	// OnDebug is a callback invoked once per candidate action during a
	// resolution, after the include/exclude decision for that action is made.
	// - kind: The candidate action kind.
	// - item: The item being resolved.
	// - included: Whether the action made it into the result.
	// - reason: Short human-readable decision reason.
	OnDebug func(kind ActionKind, item Item, included bool, reason string)
	// BaselineEdit controls whether a plain EDIT action is offered when
	// neither edit-related feature flag is set. Defaults to true.
	BaselineEdit bool
	// ScriptMaxExecutionTime is the maximum execution time for resolution
	// hook scripts, defaulting to 2000 milliseconds.
	ScriptMaxExecutionTime time.Duration
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// Properties are global properties in key-value format. They are exposed
	// to hook scripts through the `global` variable.
	Properties Metadata
}

// NewConfig creates a new Config with default values and applies the
// provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		BaselineEdit:           true,
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
		Properties:             NewMetadata(),
	}

	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

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

import (
	"testing"
	"time"

	"github.com/quickaction/quickaction/test/assert"
)

func TestFlagSet(t *testing.T) {
	t.Run("AbsentDefaultsFalse", func(t *testing.T) {
		flags := FlagSet{}
		assert.False(t, flags.Bool(FlagEditHoverButtonInTimeline))
	})

	t.Run("NilSet", func(t *testing.T) {
		var flags FlagSet
		assert.False(t, flags.Bool(FlagTimelineSingleAssetEditor))
	})

	t.Run("Bool", func(t *testing.T) {
		flags := FlagSet{
			FlagEditHoverButtonInTimeline: {Value: true},
			FlagTimelineSingleAssetEditor: {Value: false},
		}
		assert.True(t, flags.Bool(FlagEditHoverButtonInTimeline))
		assert.False(t, flags.Bool(FlagTimelineSingleAssetEditor))
	})

	t.Run("CopyIsolation", func(t *testing.T) {
		flags := FlagSet{FlagEditHoverButtonInTimeline: {Value: true}}
		copied := flags.Copy()
		copied[FlagEditHoverButtonInTimeline] = FlagValue{Value: false}
		assert.True(t, flags.Bool(FlagEditHoverButtonInTimeline))
	})

	t.Run("CopyOfNil", func(t *testing.T) {
		var flags FlagSet
		copied := flags.Copy()
		assert.NotNil(t, copied)
		assert.Equal(t, 0, len(copied))
	})
}

func TestTemplateType(t *testing.T) {
	assert.True(t, AeProject.IsProjectFile())
	assert.True(t, PremiereProject.IsProjectFile())
	assert.False(t, Other.IsProjectFile())
	assert.False(t, TemplateType("SOMETHING_NEW").IsProjectFile())
	assert.False(t, TemplateType("").IsProjectFile())
}

func TestMetadata(t *testing.T) {
	md := NewMetadata()
	md.PutValue("owner", "alice")
	md.PutValue("", "ignored")
	assert.Equal(t, "alice", md.GetValue("owner"))
	assert.Equal(t, "", md.GetValue("missing"))
	assert.Equal(t, 1, len(md.Values()))

	copied := md.Copy()
	copied.PutValue("owner", "bob")
	assert.Equal(t, "alice", md.GetValue("owner"))
}

func TestNewConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config := NewConfig()
		assert.True(t, config.BaselineEdit)
		assert.Equal(t, time.Millisecond*2000, config.ScriptMaxExecutionTime)
		assert.NotNil(t, config.Logger)
		assert.NotNil(t, config.Properties)
	})

	t.Run("Options", func(t *testing.T) {
		config := NewConfig(
			WithBaselineEdit(false),
			WithScriptMaxExecutionTime(time.Second),
			WithProperties(BuildMetadata(map[string]string{"tenant": "acme"})),
		)
		assert.False(t, config.BaselineEdit)
		assert.Equal(t, time.Second, config.ScriptMaxExecutionTime)
		assert.Equal(t, "acme", config.Properties.GetValue("tenant"))
	})
}

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

package resolver

import (
	"testing"

	"github.com/quickaction/quickaction/api/types"
	"github.com/quickaction/quickaction/test/assert"
)

func TestRendererRegistry(t *testing.T) {
	registry := new(RendererRegistry)
	editRenderer := &RendererFunc{ActionKind: types.Edit}

	t.Run("Register", func(t *testing.T) {
		assert.Nil(t, registry.Register(editRenderer))
		assert.True(t, registry.Available(types.Edit))
		assert.False(t, registry.Available(types.SaveToLibrary))
	})

	t.Run("RegisterDuplicate", func(t *testing.T) {
		err := registry.Register(&RendererFunc{ActionKind: types.Edit})
		assert.NotNil(t, err)
	})

	t.Run("Get", func(t *testing.T) {
		renderer, ok := registry.Get(types.Edit)
		assert.True(t, ok)
		assert.Equal(t, types.Edit, renderer.Kind())

		_, ok = registry.Get(types.EditHoverTimeline)
		assert.False(t, ok)
	})

	t.Run("Kinds", func(t *testing.T) {
		assert.Equal(t, []types.ActionKind{types.Edit}, registry.Kinds())
	})

	t.Run("Unregister", func(t *testing.T) {
		assert.Nil(t, registry.Unregister(types.Edit))
		assert.False(t, registry.Available(types.Edit))
		assert.NotNil(t, registry.Unregister(types.Edit))
	})
}

func TestRendererFunc(t *testing.T) {
	var rendered []string
	renderer := &RendererFunc{
		ActionKind: types.SaveToLibrary,
		Fn: func(descriptor types.ActionDescriptor) error {
			rendered = append(rendered, descriptor.Key)
			return nil
		},
	}
	assert.Equal(t, types.SaveToLibrary, renderer.Kind())
	assert.Nil(t, renderer.Render(types.ActionDescriptor{Kind: types.SaveToLibrary, Key: "SAVE_TO_LIBRARY:item-01"}))
	assert.Equal(t, []string{"SAVE_TO_LIBRARY:item-01"}, rendered)

	// nil Fn renders as a no-op
	noop := &RendererFunc{ActionKind: types.Edit}
	assert.Nil(t, noop.Render(types.ActionDescriptor{}))
}

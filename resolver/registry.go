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
	"errors"
	"fmt"
	"sync"

	"github.com/quickaction/quickaction/api/types"
)

// Registry is the default renderer registry.
var Registry = new(RendererRegistry)

// RendererRegistry is a registry of action renderers keyed by action kind.
// It doubles as the capability probe consulted during resolution: a kind with
// no registered renderer is unavailable in the current embedding context.
type RendererRegistry struct {
	// renderers is a map of action kind to registered renderer.
	renderers map[types.ActionKind]types.Renderer
	// RWMutex is a read/write mutex lock.
	sync.RWMutex
}

// Register adds a renderer to the registry. It returns an `already exists`
// error if a renderer for the same kind is registered.
func (r *RendererRegistry) Register(renderer types.Renderer) error {
	r.Lock()
	defer r.Unlock()
	if r.renderers == nil {
		r.renderers = make(map[types.ActionKind]types.Renderer)
	}
	if _, ok := r.renderers[renderer.Kind()]; ok {
		return errors.New("the renderer already exists. actionKind=" + string(renderer.Kind()))
	}
	r.renderers[renderer.Kind()] = renderer

	return nil
}

// Unregister removes the renderer for the kind.
func (r *RendererRegistry) Unregister(kind types.ActionKind) error {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.renderers[kind]; !ok {
		return fmt.Errorf("renderer not found.actionKind=%s", kind)
	}
	delete(r.renderers, kind)
	return nil
}

// Get returns the registered renderer for the kind.
func (r *RendererRegistry) Get(kind types.ActionKind) (types.Renderer, bool) {
	r.RLock()
	defer r.RUnlock()
	renderer, ok := r.renderers[kind]
	return renderer, ok
}

// Available reports whether a renderer for the kind is registered.
func (r *RendererRegistry) Available(kind types.ActionKind) bool {
	r.RLock()
	defer r.RUnlock()
	_, ok := r.renderers[kind]
	return ok
}

// Kinds returns the kinds with a registered renderer.
func (r *RendererRegistry) Kinds() []types.ActionKind {
	r.RLock()
	defer r.RUnlock()
	var kinds = make([]types.ActionKind, 0, len(r.renderers))
	for kind := range r.renderers {
		kinds = append(kinds, kind)
	}
	return kinds
}

// RendererFunc adapts a plain function into a types.Renderer.
type RendererFunc struct {
	// ActionKind is the kind the function renders.
	ActionKind types.ActionKind
	// Fn receives each resolved descriptor of that kind.
	Fn func(descriptor types.ActionDescriptor) error
}

func (f *RendererFunc) Kind() types.ActionKind {
	return f.ActionKind
}

func (f *RendererFunc) Render(descriptor types.ActionDescriptor) error {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(descriptor)
}

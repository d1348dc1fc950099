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

// Package resolver implements the quick action resolution engine: it decides
// which quick action affordances (save-to-library, edit, edit-hover-in-timeline)
// apply to a content item, combining the viewer configuration, the current
// feature flag snapshot and the item's attributes.
//
// Resolution is pure and deterministic given identical inputs. The engine
// holds no per-call state and is safe for concurrent use; configuration and
// flag snapshots are supplied by the caller on every call and never cached.
package resolver

import (
	"errors"
	"sync"

	"github.com/quickaction/quickaction/api/types"
)

// ErrNilItem is returned when Resolve is called with a nil item. This is a
// contract violation by the caller, reported immediately and never recovered.
var ErrNilItem = errors.New("item can not be nil")

// Engine resolves the ordered list of quick actions for an item.
type Engine struct {
	// Config is the engine configuration.
	Config types.Config
	// renderers is the default capability probe consulted during resolution.
	// A nil registry means every kind is renderable in this context.
	renderers types.RendererRegistry
	// gates are operator-supplied expression predicates keyed by action kind.
	gates map[types.ActionKind]*Gate
	// jsHook is the optional post-resolution script hook.
	jsHook *JsHook
	sync.RWMutex
}

// New creates a resolution engine with the given configuration.
func New(config types.Config) *Engine {
	return &Engine{
		Config: config,
	}
}

// SetRenderers sets the default renderer capability probe of the engine.
func (e *Engine) SetRenderers(renderers types.RendererRegistry) {
	e.Lock()
	defer e.Unlock()
	e.renderers = renderers
}

// Renderers returns the default renderer capability probe of the engine.
func (e *Engine) Renderers() types.RendererRegistry {
	e.RLock()
	defer e.RUnlock()
	return e.renderers
}

// Resolve resolves the quick actions for the item against the engine's
// default renderer registry. See ResolveWithRenderers.
func (e *Engine) Resolve(config types.ViewerConfig, flags types.FlagSet, item *types.Item) ([]types.ActionDescriptor, error) {
	return e.ResolveWithRenderers(config, flags, item, e.Renderers())
}

// ResolveWithRenderers resolves the quick actions for the item using an
// explicit renderer capability probe for this call.
//
// The result is ordered by rendering priority, never contains both EDIT and
// EDIT_HOVER_TIMELINE, and never contains SAVE_TO_LIBRARY for project file
// items. Absent flags default to false and unrecognized template types are
// treated as non-project files; irregular inputs degrade to fewer actions,
// never to an error. An empty result is valid. A nil item returns ErrNilItem.
func (e *Engine) ResolveWithRenderers(config types.ViewerConfig, flags types.FlagSet, item *types.Item, renderers types.RendererRegistry) ([]types.ActionDescriptor, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	actions := make([]types.ActionDescriptor, 0, 2)

	if config.DisableLibraryFeatures {
		e.debug(types.SaveToLibrary, *item, false, "library features disabled")
	} else if item.TemplateType.IsProjectFile() {
		e.debug(types.SaveToLibrary, *item, false, "project files can not be saved to the library")
	} else {
		actions = append(actions, newDescriptor(types.SaveToLibrary, *item))
		e.debug(types.SaveToLibrary, *item, true, "item is save eligible")
	}

	// The edit affordance branches are mutually exclusive, evaluated in
	// precedence order: specialized single-asset editor, hover variant,
	// baseline edit.
	if flags.Bool(types.FlagTimelineSingleAssetEditor) {
		if rendererAvailable(renderers, types.Edit) {
			actions = append(actions, newDescriptor(types.Edit, *item))
			e.debug(types.Edit, *item, true, "single asset editor enabled")
		} else {
			// No renderer for the specialized editor in this context. Emit no
			// edit action at all rather than falling back to the hover variant.
			e.debug(types.Edit, *item, false, "single asset editor renderer unavailable")
		}
	} else if flags.Bool(types.FlagEditHoverButtonInTimeline) {
		actions = append(actions, newDescriptor(types.EditHoverTimeline, *item))
		e.debug(types.EditHoverTimeline, *item, true, "edit hover button enabled")
	} else if e.Config.BaselineEdit {
		actions = append(actions, newDescriptor(types.Edit, *item))
		e.debug(types.Edit, *item, true, "baseline edit")
	} else {
		e.debug(types.Edit, *item, false, "baseline edit disabled")
	}

	actions = e.applyGates(config, flags, *item, actions)
	return e.applyJsHook(*item, actions), nil
}

// AddGate attaches an expression gate for the kind, replacing any existing
// gate for the same kind. A gated kind is only included in results when the
// expression evaluates to true.
func (e *Engine) AddGate(kind types.ActionKind, expression string) error {
	gate, err := NewGate(kind, expression)
	if err != nil {
		return err
	}
	e.Lock()
	defer e.Unlock()
	if e.gates == nil {
		e.gates = make(map[types.ActionKind]*Gate)
	}
	e.gates[kind] = gate
	return nil
}

// RemoveGate removes the gate for the kind, if any.
func (e *Engine) RemoveGate(kind types.ActionKind) {
	e.Lock()
	defer e.Unlock()
	delete(e.gates, kind)
}

// SetJsHook installs a post-resolution script hook. The script must define
// `function onResolve(actions, item)`. An empty script removes the hook.
func (e *Engine) SetJsHook(script string) error {
	var hook *JsHook
	if script != "" {
		var err error
		if hook, err = NewJsHook(e.Config, script); err != nil {
			return err
		}
	}
	e.Lock()
	defer e.Unlock()
	e.jsHook = hook
	return nil
}

// applyGates drops descriptors whose kind has a gate evaluating to false.
func (e *Engine) applyGates(config types.ViewerConfig, flags types.FlagSet, item types.Item, actions []types.ActionDescriptor) []types.ActionDescriptor {
	e.RLock()
	defer e.RUnlock()
	if len(e.gates) == 0 {
		return actions
	}
	kept := actions[:0]
	for _, action := range actions {
		if gate, ok := e.gates[action.Kind]; ok && !gate.Allow(config, flags, item) {
			e.debug(action.Kind, item, false, "dropped by gate")
			continue
		}
		kept = append(kept, action)
	}
	return kept
}

// applyJsHook runs the installed hook script, if any. A hook failure is
// logged and the unfiltered result is kept.
func (e *Engine) applyJsHook(item types.Item, actions []types.ActionDescriptor) []types.ActionDescriptor {
	e.RLock()
	hook := e.jsHook
	e.RUnlock()
	if hook == nil {
		return actions
	}
	filtered, err := hook.Apply(actions, item)
	if err != nil {
		e.Config.Logger.Printf("resolver: onResolve hook err :%v", err)
		return actions
	}
	return filtered
}

func (e *Engine) debug(kind types.ActionKind, item types.Item, included bool, reason string) {
	if e.Config.OnDebug != nil {
		e.Config.OnDebug(kind, item, included, reason)
	}
}

// newDescriptor builds a descriptor with a key that is stable across calls
// and unique within one result list.
func newDescriptor(kind types.ActionKind, item types.Item) types.ActionDescriptor {
	key := string(kind)
	if item.Id != "" {
		key = key + ":" + item.Id
	}
	return types.ActionDescriptor{
		Kind: kind,
		Key:  key,
		Item: item,
	}
}

// rendererAvailable treats a nil registry as "everything renderable": hosts
// that declare no capabilities render the resolved list themselves.
func rendererAvailable(renderers types.RendererRegistry, kind types.ActionKind) bool {
	if renderers == nil {
		return true
	}
	return renderers.Available(kind)
}

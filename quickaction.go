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

// Package quickaction decides which quick action affordances apply to a
// content item inside an embeddable viewer.
//
// # Usage
//
// Resolution combines three caller-supplied inputs: the viewer configuration,
// the current feature flag snapshot and the item descriptor. The result is an
// ordered, deduplicated list of action descriptors; an empty list is a valid
// "no actions" state.
//
// Example:
//
//	item := types.NewItem("clip-01", types.Other)
//	actions, err := quickaction.Resolve(
//		types.ViewerConfig{},
//		types.FlagSet{
//			types.FlagEditHoverButtonInTimeline: {Value: true},
//		},
//		&item,
//	)
//	// actions: [SAVE_TO_LIBRARY, EDIT_HOVER_TIMELINE]
//
// Hosts that only render some action kinds register renderers so the
// resolver can probe availability:
//
//	_ = quickaction.Registry.Register(&resolver.RendererFunc{
//		ActionKind: types.Edit,
//		Fn:         openSingleAssetEditor,
//	})
//	quickaction.DefaultEngine.SetRenderers(quickaction.Registry)
//
// An engine with no renderer registry treats every kind as renderable.
package quickaction

import (
	"github.com/quickaction/quickaction/api/types"
	"github.com/quickaction/quickaction/resolver"
)

// Registry is the default renderer registry.
var Registry = resolver.Registry

// DefaultEngine is the default resolution engine. It carries no renderer
// registry, so every action kind is considered renderable until the host
// attaches one.
var DefaultEngine = resolver.New(types.NewConfig())

// New creates a resolution engine with the given config options.
func New(opts ...types.Option) *resolver.Engine {
	return resolver.New(types.NewConfig(opts...))
}

// Resolve resolves the quick actions for the item using the default engine.
func Resolve(config types.ViewerConfig, flags types.FlagSet, item *types.Item) ([]types.ActionDescriptor, error) {
	return DefaultEngine.Resolve(config, flags, item)
}

// ResolveWithRenderers resolves with an explicit renderer capability probe.
func ResolveWithRenderers(config types.ViewerConfig, flags types.FlagSet, item *types.Item, renderers types.RendererRegistry) ([]types.ActionDescriptor, error) {
	return DefaultEngine.ResolveWithRenderers(config, flags, item, renderers)
}

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

// Well-known feature flag identifiers. Flags are identified by stable string
// ids so they can be flipped remotely without a new deployment.
const (
	// FlagEditHoverButtonInTimeline enables the hover variant of the edit
	// affordance inside the timeline.
	FlagEditHoverButtonInTimeline = "edit-hover-button-in-timeline"
	// FlagTimelineSingleAssetEditor enables the specialized single-asset
	// editor. When set it takes priority over the hover variant.
	FlagTimelineSingleAssetEditor = "timeline-single-asset-editor"
)

// TemplateType classifies the underlying file type of a content item.
type TemplateType string

const (
	AeProject       TemplateType = "AE_PROJECT"
	PremiereProject TemplateType = "PREMIERE_PROJECT"
	Other           TemplateType = "OTHER"
)

// IsProjectFile reports whether the template type is a project file type.
// Project files can not be saved to the library. Unrecognized values are
// treated as non-project files.
func (t TemplateType) IsProjectFile() bool {
	return t == AeProject || t == PremiereProject
}

// ActionKind is the kind of a quick action affordance offered for an item.
type ActionKind string

const (
	SaveToLibrary     ActionKind = "SAVE_TO_LIBRARY"
	Edit              ActionKind = "EDIT"
	EditHoverTimeline ActionKind = "EDIT_HOVER_TIMELINE"
)

// ViewerConfig is the process-wide viewer configuration snapshot. It is set
// once at session startup and read-only afterwards; the resolver never owns
// or mutates it.
type ViewerConfig struct {
	// DisableLibraryFeatures disables all save-to-library affordances.
	DisableLibraryFeatures bool `json:"disableLibraryFeatures"`
}

// FlagValue is the resolved value record of a single feature flag.
type FlagValue struct {
	Value bool `json:"value"`
}

// FlagSet maps feature flag ids to resolved values. A nil map is a valid
// empty set. Absent keys resolve to false.
type FlagSet map[string]FlagValue

// Bool returns the resolved value of the flag id, or false if the id is
// absent from the set.
func (f FlagSet) Bool(id string) bool {
	if f == nil {
		return false
	}
	return f[id].Value
}

// Copy returns a shallow copy of the flag set. Copy of a nil set is an empty
// non-nil set.
func (f FlagSet) Copy() FlagSet {
	c := make(FlagSet, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

// Metadata is a string key/value attribute map.
type Metadata map[string]string

// NewMetadata creates an empty Metadata.
func NewMetadata() Metadata {
	return make(Metadata)
}

// BuildMetadata creates Metadata from a plain map.
func BuildMetadata(data map[string]string) Metadata {
	md := make(Metadata, len(data))
	for k, v := range data {
		md[k] = v
	}
	return md
}

// Copy returns a copy of the metadata.
func (md Metadata) Copy() Metadata {
	return BuildMetadata(md)
}

// Values returns the underlying map.
func (md Metadata) Values() map[string]string {
	return md
}

// GetValue returns the value of the key, or empty string if absent.
func (md Metadata) GetValue(key string) string {
	if md == nil {
		return ""
	}
	return md[key]
}

// PutValue sets a key/value pair.
func (md Metadata) PutValue(key, value string) {
	if key != "" && md != nil {
		md[key] = value
	}
}

// Item describes the content item actions are being resolved for. It is
// immutable for the duration of a resolution call.
type Item struct {
	// Id is the item identifier within the hosting viewer.
	Id string `json:"id"`
	// TemplateType classifies the item's underlying file type.
	TemplateType TemplateType `json:"templateType"`
	// Name is the display name of the item.
	Name string `json:"name,omitempty"`
	// Metadata carries additional item attributes.
	Metadata Metadata `json:"metadata,omitempty"`
}

// NewItem creates an Item with empty metadata.
func NewItem(id string, templateType TemplateType) Item {
	return Item{
		Id:           id,
		TemplateType: templateType,
		Metadata:     NewMetadata(),
	}
}

// ActionDescriptor describes one resolved quick action. Descriptors are
// produced fresh per resolution call. Order within the result list is the
// rendering priority order.
type ActionDescriptor struct {
	// Kind is the action kind.
	Kind ActionKind `json:"kind"`
	// Key is stable and unique within a single result list.
	Key string `json:"key"`
	// Item is the item the action applies to.
	Item Item `json:"item"`
}

// RendererRegistry is the capability probe for action renderers. A renderer
// for a kind may or may not be registered in the current embedding context;
// the resolver consults this to decide whether a specialized action can be
// offered at all.
type RendererRegistry interface {
	// Available reports whether a renderer for the kind is registered.
	Available(kind ActionKind) bool
}

// RendererMap is a fixed capability map. A kind absent from the map is
// unavailable.
type RendererMap map[ActionKind]bool

func (m RendererMap) Available(kind ActionKind) bool {
	return m[kind]
}

// Renderer produces the host-side affordance for a resolved descriptor.
// Rendering itself is host concern; the engine only probes availability.
type Renderer interface {
	// Kind is the action kind this renderer handles.
	Kind() ActionKind
	// Render hands a resolved descriptor to the host presentation layer.
	Render(descriptor ActionDescriptor) error
}

// Configuration is a generic component configuration map, decoded into typed
// configuration structs during component initialization.
type Configuration map[string]interface{}

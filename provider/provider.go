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

// Package provider supplies viewer configuration and feature flag snapshots
// to the hosting layer. The resolver itself never fetches or caches either;
// callers take a snapshot from a provider and pass it per resolution call.
//
// MemoryProvider is the canonical in-process holder. Remote sources (SQL,
// MQTT, cron refresh) feed a MemoryProvider rather than being consulted on
// the resolution path.
package provider

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/quickaction/quickaction/api/types"
)

// Provider is the read interface consumed by endpoints and hosts.
type Provider interface {
	// ViewerConfig returns the current viewer configuration snapshot.
	ViewerConfig() types.ViewerConfig
	// Flags returns a copy of the current flag snapshot.
	Flags() types.FlagSet
}

// FlagStore is a Provider whose flags can be flipped live.
type FlagStore interface {
	Provider
	// SetFlag flips one flag.
	SetFlag(id string, value bool)
	// DeleteFlag removes one flag. Absent flags resolve to false.
	DeleteFlag(id string)
}

// Source loads a full snapshot from a backing store.
type Source interface {
	// Load returns the viewer configuration and flag snapshot.
	Load(ctx context.Context) (types.ViewerConfig, types.FlagSet, error)
}

// MemoryProvider is an in-memory FlagStore. Reads return copies, so a
// snapshot handed to a resolution call is isolated from later flips.
// Subscribers are notified after every change.
type MemoryProvider struct {
	config      types.ViewerConfig
	flags       types.FlagSet
	subscribers map[string]func()
	sync.RWMutex
}

// NewMemoryProvider creates an empty provider: library features enabled, no
// flags set.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		flags:       make(types.FlagSet),
		subscribers: make(map[string]func()),
	}
}

func (p *MemoryProvider) ViewerConfig() types.ViewerConfig {
	p.RLock()
	defer p.RUnlock()
	return p.config
}

func (p *MemoryProvider) Flags() types.FlagSet {
	p.RLock()
	defer p.RUnlock()
	return p.flags.Copy()
}

// SetViewerConfig replaces the viewer configuration snapshot.
func (p *MemoryProvider) SetViewerConfig(config types.ViewerConfig) {
	p.Lock()
	p.config = config
	p.Unlock()
	p.notify()
}

func (p *MemoryProvider) SetFlag(id string, value bool) {
	p.Lock()
	p.flags[id] = types.FlagValue{Value: value}
	p.Unlock()
	p.notify()
}

func (p *MemoryProvider) DeleteFlag(id string) {
	p.Lock()
	delete(p.flags, id)
	p.Unlock()
	p.notify()
}

// Replace swaps in a full snapshot, typically loaded from a Source.
func (p *MemoryProvider) Replace(config types.ViewerConfig, flags types.FlagSet) {
	p.Lock()
	p.config = config
	p.flags = flags.Copy()
	p.Unlock()
	p.notify()
}

// Subscribe registers a change callback and returns an unsubscribe function.
// Callbacks run synchronously after each change, outside the provider lock.
func (p *MemoryProvider) Subscribe(fn func()) func() {
	id := uuid.Must(uuid.NewV4()).String()
	p.Lock()
	p.subscribers[id] = fn
	p.Unlock()
	return func() {
		p.Lock()
		delete(p.subscribers, id)
		p.Unlock()
	}
}

func (p *MemoryProvider) notify() {
	p.RLock()
	fns := make([]func(), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

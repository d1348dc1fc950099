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

package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/quickaction/quickaction/api/types"
	"github.com/quickaction/quickaction/test/assert"
)

func TestMemoryProvider(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		p := NewMemoryProvider()
		assert.False(t, p.ViewerConfig().DisableLibraryFeatures)
		assert.Equal(t, 0, len(p.Flags()))
	})

	t.Run("SetFlag", func(t *testing.T) {
		p := NewMemoryProvider()
		p.SetFlag(types.FlagEditHoverButtonInTimeline, true)
		assert.True(t, p.Flags().Bool(types.FlagEditHoverButtonInTimeline))

		p.DeleteFlag(types.FlagEditHoverButtonInTimeline)
		assert.False(t, p.Flags().Bool(types.FlagEditHoverButtonInTimeline))
	})

	t.Run("SnapshotIsolation", func(t *testing.T) {
		p := NewMemoryProvider()
		p.SetFlag(types.FlagEditHoverButtonInTimeline, true)
		snapshot := p.Flags()
		p.SetFlag(types.FlagEditHoverButtonInTimeline, false)
		// the earlier snapshot is unaffected by the live flip
		assert.True(t, snapshot.Bool(types.FlagEditHoverButtonInTimeline))
		assert.False(t, p.Flags().Bool(types.FlagEditHoverButtonInTimeline))
	})

	t.Run("Replace", func(t *testing.T) {
		p := NewMemoryProvider()
		p.SetFlag("stale-flag", true)
		p.Replace(types.ViewerConfig{DisableLibraryFeatures: true}, types.FlagSet{
			types.FlagTimelineSingleAssetEditor: {Value: true},
		})
		assert.True(t, p.ViewerConfig().DisableLibraryFeatures)
		assert.False(t, p.Flags().Bool("stale-flag"))
		assert.True(t, p.Flags().Bool(types.FlagTimelineSingleAssetEditor))
	})

	t.Run("Subscribe", func(t *testing.T) {
		p := NewMemoryProvider()
		var notified int
		unsubscribe := p.Subscribe(func() {
			notified++
		})
		p.SetFlag("a", true)
		p.SetViewerConfig(types.ViewerConfig{DisableLibraryFeatures: true})
		assert.Equal(t, 2, notified)

		unsubscribe()
		p.SetFlag("a", false)
		assert.Equal(t, 2, notified)
	})
}

// fakeSource returns canned snapshots for refresher tests.
type fakeSource struct {
	config types.ViewerConfig
	flags  types.FlagSet
	err    error
	loads  int
}

func (s *fakeSource) Load(_ context.Context) (types.ViewerConfig, types.FlagSet, error) {
	s.loads++
	return s.config, s.flags, s.err
}

func TestCronRefresher(t *testing.T) {
	t.Run("BadSpec", func(t *testing.T) {
		_, err := NewCronRefresher(types.NewConfig(), "not a cron spec", &fakeSource{}, NewMemoryProvider())
		assert.NotNil(t, err)
	})

	t.Run("NilSource", func(t *testing.T) {
		_, err := NewCronRefresher(types.NewConfig(), "@every 1m", nil, NewMemoryProvider())
		assert.NotNil(t, err)
	})

	t.Run("NilTarget", func(t *testing.T) {
		_, err := NewCronRefresher(types.NewConfig(), "@every 1m", &fakeSource{}, nil)
		assert.NotNil(t, err)
	})

	t.Run("Refresh", func(t *testing.T) {
		source := &fakeSource{
			config: types.ViewerConfig{DisableLibraryFeatures: true},
			flags: types.FlagSet{
				types.FlagEditHoverButtonInTimeline: {Value: true},
			},
		}
		target := NewMemoryProvider()
		r, err := NewCronRefresher(types.NewConfig(), "@every 1h", source, target)
		assert.Nil(t, err)

		r.refresh()
		assert.Equal(t, 1, source.loads)
		assert.True(t, target.ViewerConfig().DisableLibraryFeatures)
		assert.True(t, target.Flags().Bool(types.FlagEditHoverButtonInTimeline))
	})

	t.Run("LoadErrorKeepsSnapshot", func(t *testing.T) {
		target := NewMemoryProvider()
		target.SetFlag(types.FlagEditHoverButtonInTimeline, true)

		source := &fakeSource{err: errors.New("store down")}
		r, err := NewCronRefresher(types.NewConfig(), "@every 1h", source, target)
		assert.Nil(t, err)

		r.refresh()
		assert.True(t, target.Flags().Bool(types.FlagEditHoverButtonInTimeline))
	})

	t.Run("StartRefreshesImmediately", func(t *testing.T) {
		source := &fakeSource{flags: types.FlagSet{"a": {Value: true}}}
		target := NewMemoryProvider()
		r, err := NewCronRefresher(types.NewConfig(), "@every 1h", source, target)
		assert.Nil(t, err)

		r.Start()
		defer r.Stop()
		assert.Equal(t, 1, source.loads)
		assert.True(t, target.Flags().Bool("a"))
	})
}

func TestNewSQLSource(t *testing.T) {
	t.Run("EmptyDsn", func(t *testing.T) {
		_, err := NewSQLSource(types.Configuration{})
		assert.NotNil(t, err)
		assert.Equal(t, "dsn can not be empty", err.Error())
	})

	t.Run("Defaults", func(t *testing.T) {
		source, err := NewSQLSource(types.Configuration{
			"dsn": "root:root@tcp(127.0.0.1:3306)/viewer",
		})
		assert.Nil(t, err)
		defer func() {
			_ = source.Close()
		}()
		assert.Equal(t, "mysql", source.Config.DriverName)
		assert.Equal(t, "select id, value from feature_flags", source.Config.FlagsSql)
	})

	t.Run("PostgresPlaceholders", func(t *testing.T) {
		source, err := NewSQLSource(types.Configuration{
			"driverName": "postgres",
			"dsn":        "postgres://postgres@127.0.0.1/viewer",
			"flagsSql":   "select id, value from feature_flags where env = ?",
		})
		assert.Nil(t, err)
		defer func() {
			_ = source.Close()
		}()
		assert.Equal(t, "select id, value from feature_flags where env = $1", source.Config.FlagsSql)
	})

	t.Run("BadConfigurationType", func(t *testing.T) {
		_, err := NewSQLSource(types.Configuration{
			"poolSize": "not a number",
		})
		assert.NotNil(t, err)
	})
}

func TestNewMQTTSource(t *testing.T) {
	t.Run("EmptyServer", func(t *testing.T) {
		_, err := NewMQTTSource(types.NewConfig(), types.Configuration{}, NewMemoryProvider())
		assert.NotNil(t, err)
	})

	t.Run("NilTarget", func(t *testing.T) {
		_, err := NewMQTTSource(types.NewConfig(), types.Configuration{
			"server": "127.0.0.1:1883",
		}, nil)
		assert.NotNil(t, err)
	})

	t.Run("Defaults", func(t *testing.T) {
		source, err := NewMQTTSource(types.NewConfig(), types.Configuration{
			"server": "127.0.0.1:1883",
		}, NewMemoryProvider())
		assert.Nil(t, err)
		assert.Equal(t, "quickaction/flags", source.Config.FlagsTopic)
		assert.Equal(t, 60, source.Config.MaxReconnectInterval)
	})

	t.Run("FlagMessage", func(t *testing.T) {
		target := NewMemoryProvider()
		source, err := NewMQTTSource(types.NewConfig(), types.Configuration{
			"server": "127.0.0.1:1883",
		}, target)
		assert.Nil(t, err)

		source.onFlagMessage(nil, &fakeMessage{payload: []byte(`{"id":"edit-hover-button-in-timeline","value":true}`)})
		assert.True(t, target.Flags().Bool(types.FlagEditHoverButtonInTimeline))

		// payloads without an id are dropped
		source.onFlagMessage(nil, &fakeMessage{payload: []byte(`{"value":true}`)})
		assert.Equal(t, 1, len(target.Flags()))

		source.onFlagMessage(nil, &fakeMessage{payload: []byte(`not json`)})
		assert.Equal(t, 1, len(target.Flags()))
	})

	t.Run("ConfigMessage", func(t *testing.T) {
		target := NewMemoryProvider()
		source, err := NewMQTTSource(types.NewConfig(), types.Configuration{
			"server":      "127.0.0.1:1883",
			"configTopic": "quickaction/config",
		}, target)
		assert.Nil(t, err)

		source.onConfigMessage(nil, &fakeMessage{payload: []byte(`{"disableLibraryFeatures":true}`)})
		assert.True(t, target.ViewerConfig().DisableLibraryFeatures)
	})
}

// fakeMessage implements the subset of paho.Message the handlers read.
type fakeMessage struct {
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return "quickaction/flags" }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

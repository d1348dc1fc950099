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

package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quickaction/quickaction/api/types"
	"github.com/quickaction/quickaction/provider"
	"github.com/quickaction/quickaction/resolver"
	"github.com/quickaction/quickaction/test/assert"
	"github.com/quickaction/quickaction/utils/json"
)

func readActions(t *testing.T, conn *websocket.Conn) ActionsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second * 5))
	_, data, err := conn.ReadMessage()
	assert.Nil(t, err)
	var msg ActionsMessage
	assert.Nil(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebsocketEndpoint(t *testing.T) {
	store := provider.NewMemoryProvider()
	engine := resolver.New(types.NewConfig())
	ws := New(Config{Addr: ":9091"}, engine, store)

	server := httptest.NewServer(ws.Router())
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/actions"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Nil(t, err)
	defer func() {
		_ = conn.Close()
	}()

	t.Run("SubscribeResolvesImmediately", func(t *testing.T) {
		err = conn.WriteMessage(websocket.TextMessage, []byte(`{"item":{"id":"clip-01","templateType":"OTHER"}}`))
		assert.Nil(t, err)

		msg := readActions(t, conn)
		assert.Equal(t, "", msg.Error)
		assert.Equal(t, 2, len(msg.Actions))
		assert.Equal(t, types.SaveToLibrary, msg.Actions[0].Kind)
		assert.Equal(t, types.Edit, msg.Actions[1].Kind)
	})

	t.Run("FlagFlipPushes", func(t *testing.T) {
		store.SetFlag(types.FlagEditHoverButtonInTimeline, true)

		msg := readActions(t, conn)
		assert.Equal(t, "", msg.Error)
		assert.Equal(t, 2, len(msg.Actions))
		assert.Equal(t, types.EditHoverTimeline, msg.Actions[1].Kind)
	})

	t.Run("ConfigChangePushes", func(t *testing.T) {
		store.SetViewerConfig(types.ViewerConfig{DisableLibraryFeatures: true})

		msg := readActions(t, conn)
		assert.Equal(t, "", msg.Error)
		assert.Equal(t, 1, len(msg.Actions))
		assert.Equal(t, types.EditHoverTimeline, msg.Actions[0].Kind)
	})

	t.Run("MissingItem", func(t *testing.T) {
		err = conn.WriteMessage(websocket.TextMessage, []byte(`{}`))
		assert.Nil(t, err)

		msg := readActions(t, conn)
		assert.Equal(t, resolver.ErrNilItem.Error(), msg.Error)
	})
}

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

// Package websocket pushes re-resolved action lists to connected viewers.
// A client subscribes with an item; the server resolves immediately and again
// after every flag or configuration change, so affordances follow live flag
// flips without polling.
package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/quickaction/quickaction/api/types"
	"github.com/quickaction/quickaction/provider"
	"github.com/quickaction/quickaction/resolver"
	"github.com/quickaction/quickaction/utils/json"
)

// SubscribeRequest is the client message selecting the item to follow.
type SubscribeRequest struct {
	Item      *types.Item       `json:"item"`
	Renderers types.RendererMap `json:"renderers,omitempty"`
}

// ActionsMessage is pushed to the client after each resolution.
type ActionsMessage struct {
	Actions []types.ActionDescriptor `json:"actions"`
	Error   string                   `json:"error,omitempty"`
}

// Config is the websocket server configuration.
type Config struct {
	Addr        string
	CertFile    string
	CertKeyFile string
}

// Websocket is the push endpoint.
type Websocket struct {
	// Config is the server configuration.
	Config Config
	// Upgrader upgrades HTTP connections; override to customize origins or
	// buffer sizes.
	Upgrader websocket.Upgrader
	engine   *resolver.Engine
	provider *provider.MemoryProvider
	logger   types.Logger
	router   *httprouter.Router
	server   *http.Server
}

// New creates the endpoint and registers its route.
func New(config Config, engine *resolver.Engine, memoryProvider *provider.MemoryProvider) *Websocket {
	ws := &Websocket{
		Config:   config,
		engine:   engine,
		provider: memoryProvider,
		logger:   types.NewLogger(engine.Config.Logger),
	}
	router := httprouter.New()
	router.GET("/api/v1/ws/actions", ws.serveActions)
	ws.router = router
	return ws
}

// Router returns the underlying router.
func (ws *Websocket) Router() *httprouter.Router {
	return ws.router
}

// Start serves until the listener fails or Stop is called.
func (ws *Websocket) Start() error {
	ws.server = &http.Server{Addr: ws.Config.Addr, Handler: ws.router}
	var err error
	if ws.Config.CertKeyFile != "" && ws.Config.CertFile != "" {
		ws.logger.Printf("starting websocket server with TLS on :%s", ws.Config.Addr)
		err = ws.server.ListenAndServeTLS(ws.Config.CertFile, ws.Config.CertKeyFile)
	} else {
		ws.logger.Printf("starting websocket server on :%s", ws.Config.Addr)
		err = ws.server.ListenAndServe()
	}
	return err
}

// Stop closes the server.
func (ws *Websocket) Stop() {
	if ws.server != nil {
		_ = ws.server.Close()
	}
}

func (ws *Websocket) serveActions(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	c, err := ws.Upgrader.Upgrade(w, req, nil)
	if err != nil {
		ws.logger.Printf("websocket upgrade err :%v", err)
		return
	}
	s := &session{conn: c}
	unsubscribe := ws.provider.Subscribe(func() {
		ws.push(s)
	})
	defer func() {
		unsubscribe()
		_ = c.Close()
	}()

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		var sub SubscribeRequest
		if err = json.Unmarshal(message, &sub); err != nil {
			ws.send(s, ActionsMessage{Error: err.Error()})
			continue
		}
		if sub.Item == nil {
			ws.send(s, ActionsMessage{Error: resolver.ErrNilItem.Error()})
			continue
		}
		s.subscribe(sub)
		ws.push(s)
	}
}

// push resolves the session's item against the current provider snapshot and
// writes the result.
func (ws *Websocket) push(s *session) {
	item, renderers := s.subscription()
	if item == nil {
		return
	}
	var actions []types.ActionDescriptor
	var err error
	if renderers != nil {
		actions, err = ws.engine.ResolveWithRenderers(ws.provider.ViewerConfig(), ws.provider.Flags(), item, renderers)
	} else {
		actions, err = ws.engine.Resolve(ws.provider.ViewerConfig(), ws.provider.Flags(), item)
	}
	if err != nil {
		ws.send(s, ActionsMessage{Error: err.Error()})
		return
	}
	ws.send(s, ActionsMessage{Actions: actions})
}

func (ws *Websocket) send(s *session, msg ActionsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		ws.logger.Printf("websocket marshal err :%v", err)
		return
	}
	if err = s.write(data); err != nil {
		ws.logger.Printf("websocket write err :%v", err)
	}
}

// session is one connected viewer. Writes are serialized: provider change
// callbacks and the read loop both push.
type session struct {
	conn      *websocket.Conn
	item      *types.Item
	renderers types.RendererMap
	sync.Mutex
}

func (s *session) subscribe(sub SubscribeRequest) {
	s.Lock()
	defer s.Unlock()
	s.item = sub.Item
	s.renderers = sub.Renderers
}

func (s *session) subscription() (*types.Item, types.RendererMap) {
	s.Lock()
	defer s.Unlock()
	return s.item, s.renderers
}

func (s *session) write(data []byte) error {
	s.Lock()
	defer s.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

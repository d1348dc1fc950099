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

// Package rest exposes the resolver and the flag store over HTTP for hosts
// that embed the viewer out of process.
package rest

import (
	"io"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/quickaction/quickaction/api/types"
	"github.com/quickaction/quickaction/provider"
	"github.com/quickaction/quickaction/resolver"
	"github.com/quickaction/quickaction/utils/json"
)

const (
	ContentTypeKey  = "Content-Type"
	JsonContextType = "application/json"
	RequestIdKey    = "X-Request-Id"
)

// ResolveRequest is the body of POST /api/v1/resolve. Config, Flags and
// Renderers are optional; absent fields fall back to the endpoint's flag
// store snapshots and the engine's default renderer registry.
type ResolveRequest struct {
	Item      *types.Item         `json:"item"`
	Config    *types.ViewerConfig `json:"config,omitempty"`
	Flags     types.FlagSet       `json:"flags,omitempty"`
	Renderers types.RendererMap   `json:"renderers,omitempty"`
}

// ResolveResponse carries the resolved ordered action list.
type ResolveResponse struct {
	RequestId string                   `json:"requestId"`
	Actions   []types.ActionDescriptor `json:"actions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Config is the HTTP server configuration.
type Config struct {
	Addr        string
	CertFile    string
	CertKeyFile string
}

// Rest is the HTTP endpoint.
type Rest struct {
	// Config is the server configuration.
	Config Config
	engine *resolver.Engine
	store  provider.FlagStore
	logger types.Logger
	router *httprouter.Router
	server *http.Server
}

// New creates the endpoint and registers its routes.
func New(config Config, engine *resolver.Engine, store provider.FlagStore) *Rest {
	r := &Rest{
		Config: config,
		engine: engine,
		store:  store,
		logger: types.NewLogger(engine.Config.Logger),
	}
	router := httprouter.New()
	router.POST("/api/v1/resolve", r.handler(r.resolve))
	router.GET("/api/v1/flags", r.handler(r.getFlags))
	router.PUT("/api/v1/flags/:id", r.handler(r.putFlag))
	router.DELETE("/api/v1/flags/:id", r.handler(r.deleteFlag))
	r.router = router
	return r
}

// Router returns the underlying router, usable for mounting into an existing
// server or for tests.
func (r *Rest) Router() *httprouter.Router {
	return r.router
}

// Start serves until the listener fails or Stop is called.
func (r *Rest) Start() error {
	r.server = &http.Server{Addr: r.Config.Addr, Handler: r.router}
	var err error
	if r.Config.CertKeyFile != "" && r.Config.CertFile != "" {
		r.logger.Printf("starting server with TLS on :%s", r.Config.Addr)
		err = r.server.ListenAndServeTLS(r.Config.CertFile, r.Config.CertKeyFile)
	} else {
		r.logger.Printf("starting server on :%s", r.Config.Addr)
		err = r.server.ListenAndServe()
	}
	return err
}

// Stop closes the server.
func (r *Rest) Stop() {
	if r.server != nil {
		_ = r.server.Close()
	}
}

// handler wraps a route with panic recovery and a correlation id.
func (r *Rest) handler(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		defer func() {
			if e := recover(); e != nil {
				r.logger.Printf("rest handler err :%v", e)
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		w.Header().Set(RequestIdKey, uuid.Must(uuid.NewV4()).String())
		next(w, req, params)
	}
}

func (r *Rest) resolve(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(req.Body)
	if req.Body != nil {
		_ = req.Body.Close()
	}
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var resolveReq ResolveRequest
	if err = json.Unmarshal(body, &resolveReq); err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	config := resolveReq.Config
	if config == nil {
		c := r.store.ViewerConfig()
		config = &c
	}
	flags := resolveReq.Flags
	if flags == nil {
		flags = r.store.Flags()
	}

	var actions []types.ActionDescriptor
	if resolveReq.Renderers != nil {
		actions, err = r.engine.ResolveWithRenderers(*config, flags, resolveReq.Item, resolveReq.Renderers)
	} else {
		actions, err = r.engine.Resolve(*config, flags, resolveReq.Item)
	}
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	r.writeJson(w, http.StatusOK, ResolveResponse{
		RequestId: w.Header().Get(RequestIdKey),
		Actions:   actions,
	})
}

func (r *Rest) getFlags(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	r.writeJson(w, http.StatusOK, r.store.Flags())
}

func (r *Rest) putFlag(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
	body, err := io.ReadAll(req.Body)
	if req.Body != nil {
		_ = req.Body.Close()
	}
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var value types.FlagValue
	if err = json.Unmarshal(body, &value); err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := params.ByName("id")
	r.store.SetFlag(id, value.Value)
	r.writeJson(w, http.StatusOK, map[string]types.FlagValue{id: value})
}

func (r *Rest) deleteFlag(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	r.store.DeleteFlag(params.ByName("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (r *Rest) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Printf("rest marshal err :%v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set(ContentTypeKey, JsonContextType)
	w.WriteHeader(statusCode)
	_, _ = w.Write(data)
}

func (r *Rest) writeError(w http.ResponseWriter, statusCode int, message string) {
	r.writeJson(w, statusCode, errorResponse{Error: message})
}

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
	"time"

	"github.com/dop251/goja"
	"github.com/quickaction/quickaction/api/types"
)

const (
	// OnResolveFuncName is the function a hook script must define.
	OnResolveFuncName = "onResolve"
	// GlobalKey is the variable exposing Config.Properties to hook scripts.
	GlobalKey = "global"
)

// JsHook runs a JavaScript post-resolution hook. The script defines
// `function onResolve(actions, item)` receiving the resolved descriptors as
// `[{kind, key}]` and the item attributes, and returns the array of keys to
// keep. VMs are pooled and the program is compiled once.
type JsHook struct {
	config  types.Config
	program *goja.Program
	vmPool  sync.Pool
}

// NewJsHook compiles the hook script and validates that it defines onResolve.
func NewJsHook(config types.Config, script string) (*JsHook, error) {
	program, err := goja.Compile("", script, true)
	if err != nil {
		return nil, err
	}
	hook := &JsHook{
		config:  config,
		program: program,
	}
	vm, err := hook.newVm()
	if err != nil {
		return nil, err
	}
	if _, ok := goja.AssertFunction(vm.Get(OnResolveFuncName)); !ok {
		return nil, errors.New(OnResolveFuncName + " is not defined")
	}
	hook.vmPool = sync.Pool{
		New: func() interface{} {
			v, _ := hook.newVm()
			return v
		},
	}
	hook.vmPool.Put(vm)
	return hook, nil
}

// newVm creates a js VM with the hook program already evaluated.
func (h *JsHook) newVm() (*goja.Runtime, error) {
	vm := goja.New()
	if len(h.config.Properties.Values()) != 0 {
		if err := vm.Set(GlobalKey, h.config.Properties.Values()); err != nil {
			return nil, err
		}
	}
	if _, err := vm.RunProgram(h.program); err != nil {
		return nil, err
	}
	return vm, nil
}

// Apply invokes onResolve and filters the actions down to the returned keys.
// The original slice is returned together with the error when the hook fails.
func (h *JsHook) Apply(actions []types.ActionDescriptor, item types.Item) ([]types.ActionDescriptor, error) {
	vm, _ := h.vmPool.Get().(*goja.Runtime)
	if vm == nil {
		return actions, errors.New("js vm init failed")
	}
	timeout := h.config.ScriptMaxExecutionTime
	if timeout <= 0 {
		timeout = time.Millisecond * 2000
	}
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt("execution timeout")
	})
	defer func() {
		timer.Stop()
		vm.ClearInterrupt()
		h.vmPool.Put(vm)
	}()

	fn, ok := goja.AssertFunction(vm.Get(OnResolveFuncName))
	if !ok {
		return actions, errors.New(OnResolveFuncName + " is not defined")
	}
	arg := make([]interface{}, 0, len(actions))
	for _, action := range actions {
		arg = append(arg, map[string]interface{}{
			"kind": string(action.Kind),
			"key":  action.Key,
		})
	}
	res, err := fn(goja.Undefined(), vm.ToValue(arg), vm.ToValue(itemEvn(item)))
	if err != nil {
		return actions, err
	}
	exported := res.Export()
	keys, ok := exported.([]interface{})
	if !ok {
		return actions, fmt.Errorf("%s must return an array of keys, got %T", OnResolveFuncName, exported)
	}
	keep := make(map[string]bool, len(keys))
	for _, k := range keys {
		if s, ok := k.(string); ok {
			keep[s] = true
		}
	}
	kept := make([]types.ActionDescriptor, 0, len(actions))
	for _, action := range actions {
		if keep[action.Key] {
			kept = append(kept, action)
		}
	}
	return kept, nil
}

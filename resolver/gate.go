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

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/quickaction/quickaction/api/types"
)

// Gate is an operator-supplied eligibility predicate for one action kind,
// expressed as an expr expression evaluated per resolution.
//
// The expression sees the following variables:
// `item` the item attributes. Example: `item.templateType != "OTHER"`
// `flags` the resolved flag values by id. Example: `flags["edit-hover-button-in-timeline"]`
// `config` the viewer configuration. Example: `!config.disableLibraryFeatures`
//
// A gate that fails to evaluate denies the action: resolution degrades to
// fewer actions and never errors at runtime.
type Gate struct {
	kind    types.ActionKind
	exprStr string
	program *vm.Program
}

// NewGate compiles a gate expression for the kind.
func NewGate(kind types.ActionKind, exprStr string) (*Gate, error) {
	if exprStr == "" {
		return nil, errors.New("expr can not be empty")
	}
	program, err := expr.Compile(exprStr, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &Gate{
		kind:    kind,
		exprStr: exprStr,
		program: program,
	}, nil
}

// Kind returns the action kind the gate applies to.
func (g *Gate) Kind() types.ActionKind {
	return g.kind
}

// Allow evaluates the gate expression against the resolution inputs.
func (g *Gate) Allow(config types.ViewerConfig, flags types.FlagSet, item types.Item) bool {
	evn := map[string]interface{}{
		"item":   itemEvn(item),
		"flags":  flagsEvn(flags),
		"config": map[string]interface{}{"disableLibraryFeatures": config.DisableLibraryFeatures},
	}
	out, err := vm.Run(g.program, evn)
	if err != nil {
		return false
	}
	result, ok := out.(bool)
	return ok && result
}

// itemEvn exposes item fields under their wire names.
func itemEvn(item types.Item) map[string]interface{} {
	return map[string]interface{}{
		"id":           item.Id,
		"templateType": string(item.TemplateType),
		"name":         item.Name,
		"metadata":     item.Metadata.Values(),
	}
}

func flagsEvn(flags types.FlagSet) map[string]bool {
	evn := make(map[string]bool, len(flags))
	for id, v := range flags {
		evn[id] = v.Value
	}
	return evn
}

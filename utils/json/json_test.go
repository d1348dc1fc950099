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

package json

import (
	"testing"

	"github.com/quickaction/quickaction/test/assert"
)

func TestMarshal(t *testing.T) {
	t.Run("NoHtmlEscape", func(t *testing.T) {
		data, err := Marshal(map[string]string{"name": "cut & trim <v2>"})
		assert.Nil(t, err)
		assert.Equal(t, `{"name":"cut & trim <v2>"}`, string(data))
	})

	t.Run("NoTrailingNewline", func(t *testing.T) {
		data, err := Marshal([]string{"a"})
		assert.Nil(t, err)
		assert.Equal(t, `["a"]`, string(data))
	})
}

func TestUnmarshal(t *testing.T) {
	var v map[string]bool
	assert.Nil(t, Unmarshal([]byte(`{"value":true}`), &v))
	assert.True(t, v["value"])
	assert.NotNil(t, Unmarshal([]byte(`{`), &v))
}

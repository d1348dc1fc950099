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
	"bytes"
	"encoding/json"
)

// Marshal marshals the value to json data without escaping &, <, and > to
// their \u sequences. Payloads here carry flag ids and item names that should
// round-trip verbatim.
func Marshal(v interface{}) ([]byte, error) {
	var byteBuf bytes.Buffer
	encoder := json.NewEncoder(&byteBuf)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err == nil && byteBuf.Len() > 0 {
		// drop the trailing newline Encode appends
		return byteBuf.Bytes()[:byteBuf.Len()-1], err
	}
	return byteBuf.Bytes(), err
}

// Unmarshal json data to struct
func Unmarshal(b []byte, m interface{}) error {
	return json.Unmarshal(b, m)
}

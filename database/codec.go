// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode encodes records with Core Deterministic Encoding
// (RFC 8949 section 4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. The same record always produces identical bytes,
// so record bytes can be compared and hashed directly.
var cborEncMode cbor.EncMode

// cborDecMode accepts standard CBOR. Unknown fields are ignored so records
// written by a newer version still decode.
var cborDecMode cbor.DecMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("database: CBOR encoder initialization failed: " + err.Error())
	}
	cborDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("database: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalRecord encodes a canonical record to deterministic CBOR.
func MarshalRecord(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// UnmarshalRecord decodes CBOR record bytes into v.
func UnmarshalRecord(data []byte, v any) error {
	return cborDecMode.Unmarshal(data, v)
}

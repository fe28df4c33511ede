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

package types

// Blob key prefixes for the record kinds. Every record document is stored
// under its kind prefix followed by the 32-byte derived address, so a record
// is located directly from its derivation with no extra index.
const (
	PoolBlobKeyPrefix    = "vp"
	GrantBlobKeyPrefix   = "vg"
	AccountBlobKeyPrefix = "vc"
	MintBlobKeyPrefix    = "vm"
)

func PoolBlobKey(addr []byte) []byte {
	key := []byte(PoolBlobKeyPrefix)
	key = append(key, addr...)
	return key
}

func GrantBlobKey(addr []byte) []byte {
	key := []byte(GrantBlobKeyPrefix)
	key = append(key, addr...)
	return key
}

func AccountBlobKey(addr []byte) []byte {
	key := []byte(AccountBlobKeyPrefix)
	key = append(key, addr...)
	return key
}

func MintBlobKey(addr []byte) []byte {
	key := []byte(MintBlobKeyPrefix)
	key = append(key, addr...)
	return key
}

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

package keystore

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/vestry/database/sops"
	"github.com/fxamacker/cbor/v2"
)

const (
	signingKeyType      = "VestryIdentitySigningKey_ed25519"
	verificationKeyType = "VestryIdentityVerificationKey_ed25519"

	signingKeyDescription      = "Vestry Identity Signing Key"
	verificationKeyDescription = "Vestry Identity Verification Key"
)

// keyFileEnvelope represents the JSON structure of a key file on disk.
type keyFileEnvelope struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	CborHex     string `json:"cborHex"`
}

// loadedKey holds the parsed contents of a key file.
type loadedKey struct {
	Type        string
	Description string
	KeyBytes    []byte
}

// loadKeyFromFile loads a signing key from a file path.
// Returns ErrInsecureFileMode if the file has group or other access.
//
// The file is opened first and permissions are checked on the open handle
// (via fstat on Unix) to avoid a TOCTOU race between the permission check
// and the read.
func loadKeyFromFile(path string) (*loadedKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file %q: %w", path, err)
	}
	defer f.Close()

	if err := checkOpenFilePermissions(f); err != nil {
		return nil, err
	}

	// Limit read to 1 MiB to guard against accidentally pointing at a
	// large file. Valid key files are well under this size.
	const maxKeyFileSize = 1 << 20
	data, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}

	// Key files written with SOPS master keys configured are encrypted
	// envelopes. Decrypt before parsing.
	if isSopsEnvelope(data) {
		data, err = sops.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to decrypt key file %q: %w",
				path,
				err,
			)
		}
	}

	key, err := parseKeyEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %q: %w", path, err)
	}
	return key, nil
}

// loadVerificationKeyFromFile loads a verification key from a file path.
// Unlike loadKeyFromFile, this does not check file permissions because
// verification keys contain only public data and do not require protection
// like signing keys.
func loadVerificationKeyFromFile(path string) (*loadedKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to read verification key file %q: %w",
			path,
			err,
		)
	}
	key, err := parseKeyEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse verification key file %q: %w",
			path,
			err,
		)
	}
	if key.Type != verificationKeyType {
		return nil, fmt.Errorf(
			"expected %s, got %s",
			verificationKeyType,
			key.Type,
		)
	}
	return key, nil
}

// isSopsEnvelope reports whether the file contents carry SOPS metadata.
func isSopsEnvelope(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, ok := probe["sops"]
	return ok
}

// parseKeyEnvelope parses a key file envelope.
func parseKeyEnvelope(fileBytes []byte) (*loadedKey, error) {
	var env keyFileEnvelope
	if err := json.Unmarshal(fileBytes, &env); err != nil {
		return nil, fmt.Errorf("could not parse key file envelope: %w", err)
	}

	cborData, err := hex.DecodeString(env.CborHex)
	if err != nil {
		return nil, fmt.Errorf("could not decode key from hex: %w", err)
	}

	lk := &loadedKey{
		Type:        env.Type,
		Description: env.Description,
	}

	// Decode cbor encoded key bytes based on type
	switch env.Type {
	case signingKeyType:
		var keyBytes []byte
		if err := cbor.Unmarshal(cborData, &keyBytes); err != nil {
			return nil, fmt.Errorf(
				"failed to unmarshal signing key CBOR: %w",
				err,
			)
		}
		if len(keyBytes) != ed25519.SeedSize {
			return nil, fmt.Errorf(
				"invalid signing key bytes: expected %d, got %d",
				ed25519.SeedSize,
				len(keyBytes),
			)
		}
		lk.KeyBytes = keyBytes
		return lk, nil

	case verificationKeyType:
		var keyBytes []byte
		if err := cbor.Unmarshal(cborData, &keyBytes); err != nil {
			return nil, fmt.Errorf(
				"failed to unmarshal verification key CBOR: %w",
				err,
			)
		}
		if len(keyBytes) != ed25519.PublicKeySize {
			return nil, fmt.Errorf(
				"invalid verification key bytes: expected %d, got %d",
				ed25519.PublicKeySize,
				len(keyBytes),
			)
		}
		lk.KeyBytes = keyBytes
		return lk, nil

	default:
		return nil, fmt.Errorf("unknown key type: %s", env.Type)
	}
}

// emitKeyEnvelope builds the JSON envelope for a key.
func emitKeyEnvelope(
	keyType string,
	description string,
	keyBytes []byte,
) ([]byte, error) {
	cborData, err := cbor.Marshal(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key CBOR: %w", err)
	}
	env := keyFileEnvelope{
		Type:        keyType,
		Description: description,
		CborHex:     hex.EncodeToString(cborData),
	}
	out, err := json.MarshalIndent(env, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key envelope: %w", err)
	}
	out = append(out, '\n')
	return out, nil
}

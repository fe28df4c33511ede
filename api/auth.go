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

package api

import (
	"crypto/ed25519"
	"encoding/hex"

	"github.com/blinklabs-io/vestry/derivation"
	"github.com/gofiber/fiber/v2"
)

const (
	// SignerHeader carries the caller's bech32 identity address
	SignerHeader = "X-Vestry-Signer"
	// SignatureHeader carries the hex ed25519 signature over the request
	SignatureHeader = "X-Vestry-Signature"

	signerLocal = "vestry-signer"
)

// SigningMessage builds the byte string a client signs for a mutating
// request: the method, the unescaped path, and the raw body joined by
// pipes. Identity addresses are ed25519 public keys, so the server can
// verify directly against the signer address.
func SigningMessage(method string, path string, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+len(body)+2)
	msg = append(msg, method...)
	msg = append(msg, '|')
	msg = append(msg, path...)
	msg = append(msg, '|')
	msg = append(msg, body...)
	return msg
}

// authenticate verifies the signer headers on mutating routes and stashes
// the verified identity for the handler. With insecureDevMode set, the
// signer header alone is accepted.
func (a *Api) authenticate(c *fiber.Ctx) error {
	signerValue := c.Get(SignerHeader)
	if signerValue == "" {
		return apiError{
			fiber.StatusForbidden,
			"missing " + SignerHeader + " header",
		}
	}
	signer, err := derivation.ParseAddress(signerValue)
	if err != nil {
		return apiError{
			fiber.StatusForbidden,
			"invalid signer address",
		}
	}
	if !a.config.InsecureDevMode {
		sigValue := c.Get(SignatureHeader)
		if sigValue == "" {
			return apiError{
				fiber.StatusForbidden,
				"missing " + SignatureHeader + " header",
			}
		}
		sig, err := hex.DecodeString(sigValue)
		if err != nil || len(sig) != ed25519.SignatureSize {
			return apiError{
				fiber.StatusForbidden,
				"malformed signature",
			}
		}
		msg := SigningMessage(c.Method(), c.Path(), c.Body())
		if !ed25519.Verify(ed25519.PublicKey(signer.Bytes()), msg, sig) {
			return apiError{
				fiber.StatusForbidden,
				"signature verification failed",
			}
		}
	}
	c.Locals(signerLocal, signer)
	return c.Next()
}

// signerFromContext returns the identity the auth middleware verified
func signerFromContext(c *fiber.Ctx) (derivation.Address, error) {
	signer, ok := c.Locals(signerLocal).(derivation.Address)
	if !ok {
		return derivation.Address{}, apiError{
			fiber.StatusForbidden,
			"no authenticated signer",
		}
	}
	return signer, nil
}

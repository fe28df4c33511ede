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

// Package keystore provides storage for operator signing identities. An
// identity is an ed25519 keypair whose public key doubles as the identity
// address. Signing keys are kept in per-identity files, encrypted at rest
// with SOPS when master keys are configured in the environment.
package keystore

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blinklabs-io/vestry/database/sops"
	"github.com/blinklabs-io/vestry/derivation"
)

// Common errors returned by KeyStore operations.
var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrKeyExists        = errors.New("key already exists")
	ErrInvalidKeyName   = errors.New("invalid key name")
	ErrInsecureFileMode = errors.New("insecure file permissions")
)

// Identity is a named ed25519 signing identity. Its address is the public
// key, so any holder of the address can verify the identity's signatures
// directly.
type Identity struct {
	name string
	priv ed25519.PrivateKey
	addr derivation.Address
}

// Name returns the identity's name within the keystore.
func (i *Identity) Name() string {
	return i.name
}

// Address returns the identity address (the ed25519 public key).
func (i *Identity) Address() derivation.Address {
	return i.addr
}

// Public returns a copy of the ed25519 public key.
func (i *Identity) Public() ed25519.PublicKey {
	return bytes.Clone(i.priv.Public().(ed25519.PublicKey))
}

// Sign signs a message with the identity's private key.
func (i *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(i.priv, message)
}

// KeyInfo describes an identity without exposing key material.
type KeyInfo struct {
	Name    string
	Address derivation.Address
}

// KeyStoreConfig holds configuration for the KeyStore.
type KeyStoreConfig struct {
	// Path is the directory holding key files.
	Path string
	// Logger for keystore events.
	Logger *slog.Logger
}

// KeyStore manages operator signing identities on disk.
type KeyStore struct {
	config KeyStoreConfig
	logger *slog.Logger

	mu         sync.RWMutex
	identities map[string]*Identity
}

// NewKeyStore creates a new KeyStore with the given configuration.
func NewKeyStore(config KeyStoreConfig) *KeyStore {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &KeyStore{
		config:     config,
		logger:     config.Logger.With("component", "keystore"),
		identities: make(map[string]*Identity),
	}
}

// Generate creates a new identity, writes its key files, and returns it.
// The signing key file is created with owner-only permissions and is
// SOPS-encrypted when master keys are configured in the environment. A
// plaintext verification key file is written alongside so identities can
// be listed without access to the encryption keys.
func (ks *KeyStore) Generate(name string) (*Identity, error) {
	if err := validateKeyName(name); err != nil {
		return nil, err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if err := os.MkdirAll(ks.config.Path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	skeyData, err := emitKeyEnvelope(
		signingKeyType,
		signingKeyDescription,
		priv.Seed(),
	)
	if err != nil {
		return nil, err
	}
	if sops.MasterKeysConfigured() {
		skeyData, err = sops.Encrypt(skeyData)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt signing key: %w", err)
		}
	}

	pub := priv.Public().(ed25519.PublicKey)
	vkeyData, err := emitKeyEnvelope(
		verificationKeyType,
		verificationKeyDescription,
		pub,
	)
	if err != nil {
		return nil, err
	}

	// O_EXCL makes the existence check atomic with file creation
	skeyPath := ks.signingKeyPath(name)
	f, err := os.OpenFile(
		skeyPath,
		os.O_WRONLY|os.O_CREATE|os.O_EXCL,
		0o600,
	)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyExists, name)
		}
		return nil, fmt.Errorf("failed to create key file: %w", err)
	}
	if _, err := f.Write(skeyData); err != nil {
		f.Close()
		os.Remove(skeyPath)
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(skeyPath)
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}

	if err := os.WriteFile(
		ks.verificationKeyPath(name),
		vkeyData,
		0o644, // #nosec G306 -- public key material
	); err != nil {
		os.Remove(skeyPath)
		return nil, fmt.Errorf(
			"failed to write verification key file: %w",
			err,
		)
	}

	addr, err := derivation.NewAddress(pub)
	if err != nil {
		return nil, err
	}
	identity := &Identity{
		name: name,
		priv: priv,
		addr: addr,
	}
	ks.identities[name] = identity

	ks.logger.Info(
		"identity generated",
		"name", name,
		"address", addr.String(),
	)

	return identity, nil
}

// Load reads an identity's signing key from disk. The key file must not be
// readable by group or other. When a verification key file exists alongside,
// the loaded key is checked against it.
func (ks *KeyStore) Load(name string) (*Identity, error) {
	if err := validateKeyName(name); err != nil {
		return nil, err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if identity, ok := ks.identities[name]; ok {
		return identity, nil
	}

	skeyPath := ks.signingKeyPath(name)
	lk, err := loadKeyFromFile(skeyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return nil, err
	}
	if lk.Type != signingKeyType {
		return nil, fmt.Errorf(
			"expected %s, got %s",
			signingKeyType,
			lk.Type,
		)
	}

	priv := ed25519.NewKeyFromSeed(lk.KeyBytes)
	pub := priv.Public().(ed25519.PublicKey)

	// Verify against the verification key file when present
	vkeyPath := ks.verificationKeyPath(name)
	if _, statErr := os.Stat(vkeyPath); statErr == nil {
		vk, err := loadVerificationKeyFromFile(vkeyPath)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(vk.KeyBytes, pub) {
			return nil, fmt.Errorf(
				"verification key file does not match signing key for %q",
				name,
			)
		}
	}

	addr, err := derivation.NewAddress(pub)
	if err != nil {
		return nil, err
	}
	identity := &Identity{
		name: name,
		priv: priv,
		addr: addr,
	}
	ks.identities[name] = identity

	return identity, nil
}

// List returns the identities in the keystore, ordered by name. Listing
// reads only verification key files, so it works without access to the
// SOPS master keys protecting the signing keys.
func (ks *KeyStore) List() ([]KeyInfo, error) {
	entries, err := os.ReadDir(ks.config.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keystore directory: %w", err)
	}

	var infos []KeyInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), ".vkey")
		if !ok {
			continue
		}
		vk, err := loadVerificationKeyFromFile(
			filepath.Join(ks.config.Path, entry.Name()),
		)
		if err != nil {
			ks.logger.Warn(
				"skipping unreadable verification key",
				"file", entry.Name(),
				"error", err,
			)
			continue
		}
		addr, err := derivation.NewAddress(vk.KeyBytes)
		if err != nil {
			continue
		}
		infos = append(infos, KeyInfo{
			Name:    name,
			Address: addr,
		})
	}
	return infos, nil
}

// Sign loads the named identity and signs a message with it.
func (ks *KeyStore) Sign(name string, message []byte) ([]byte, error) {
	identity, err := ks.Load(name)
	if err != nil {
		return nil, err
	}
	return identity.Sign(message), nil
}

func (ks *KeyStore) signingKeyPath(name string) string {
	return filepath.Join(ks.config.Path, name+".skey")
}

func (ks *KeyStore) verificationKeyPath(name string) string {
	return filepath.Join(ks.config.Path, name+".vkey")
}

// validateKeyName rejects names that could escape the keystore directory
// or collide with the key file suffixes.
func validateKeyName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidKeyName)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return fmt.Errorf(
				"%w: %q may only contain letters, digits, '-' and '_'",
				ErrInvalidKeyName,
				name,
			)
		}
	}
	return nil
}

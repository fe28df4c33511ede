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

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/vestry/api"
	"github.com/blinklabs-io/vestry/internal/config"
	"github.com/blinklabs-io/vestry/keystore"
	"github.com/spf13/cobra"
)

// keystorePath resolves the keystore directory, defaulting to a "keys"
// subdirectory of the data dir when not configured.
func keystorePath(cfg *config.Config) string {
	if cfg.KeystorePath != "" {
		return cfg.KeystorePath
	}
	return filepath.Join(cfg.DatabasePath, "keys")
}

func openKeyStore(cmd *cobra.Command) (*keystore.KeyStore, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, fmt.Errorf("no config found in context")
	}
	return keystore.NewKeyStore(keystore.KeyStoreConfig{
		Path: keystorePath(cfg),
	}), nil
}

func keysGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [name]",
		Short: "Generate a new signing identity",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logger := commonRun()
			ks, err := openKeyStore(cmd)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			identity, err := ks.Generate(args[0])
			if err != nil {
				logger.Error(
					"failed to generate identity",
					"name", args[0],
					"error", err,
				)
				os.Exit(1)
			}
			fmt.Printf("%s %s\n", identity.Name(), identity.Address())
		},
	}
	return cmd
}

func keysListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List signing identities",
		Run: func(cmd *cobra.Command, args []string) {
			ks, err := openKeyStore(cmd)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			infos, err := ks.List()
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			for _, info := range infos {
				fmt.Printf("%s %s\n", info.Name, info.Address)
			}
		},
	}
	return cmd
}

func keysSignCommand() *cobra.Command {
	var (
		method   string
		reqPath  string
		bodyFile string
	)
	cmd := &cobra.Command{
		Use:   "sign [name]",
		Short: "Sign an API request and print the auth headers",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if reqPath == "" {
				slog.Error("--path is required")
				os.Exit(1)
			}
			var body []byte
			var err error
			if bodyFile == "-" {
				body, err = io.ReadAll(os.Stdin)
			} else if bodyFile != "" {
				body, err = os.ReadFile(bodyFile)
			}
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			ks, err := openKeyStore(cmd)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			identity, err := ks.Load(args[0])
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			sig := identity.Sign(api.SigningMessage(method, reqPath, body))
			fmt.Printf("%s: %s\n", api.SignerHeader, identity.Address())
			fmt.Printf("%s: %s\n", api.SignatureHeader, hex.EncodeToString(sig))
		},
	}
	cmd.Flags().StringVar(&method, "method", "POST", "HTTP method to sign")
	cmd.Flags().StringVar(&reqPath, "path", "", "request path to sign")
	cmd.Flags().
		StringVar(&bodyFile, "body-file", "", "request body file, '-' for stdin")
	return cmd
}

func keysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing identities",
	}
	cmd.AddCommand(keysGenerateCommand())
	cmd.AddCommand(keysListCommand())
	cmd.AddCommand(keysSignCommand())
	return cmd
}

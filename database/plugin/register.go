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

package plugin

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota
	PluginTypeMetadata
)

// PluginTypeName returns the name for a plugin type
func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// PluginOption describes a single configurable option for a plugin. Dest
// must be a pointer to a value of the type named by Type. CustomEnvVar
// overrides the derived environment variable name for the option.
type PluginOption struct {
	Dest         any
	DefaultValue any
	Name         string
	Description  string
	CustomEnvVar string
	Type         PluginOptionType
}

// PluginEntry describes a registered plugin. ConfigureFunc, when set, is
// called before instantiation to hand the plugin its runtime dependencies.
type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	ConfigureFunc      func(*slog.Logger, prometheus.Registerer)
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var pluginEntries []PluginEntry

// Register adds a plugin entry to the global registry. It's meant to be
// called from a plugin package's init()
func Register(entry PluginEntry) {
	pluginEntries = append(pluginEntries, entry)
}

// GetPlugins returns the registered plugin entries for the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	ret := []PluginEntry{}
	for _, entry := range pluginEntries {
		if entry.Type == pluginType {
			ret = append(ret, entry)
		}
	}
	return ret
}

// GetPlugin instantiates the named plugin of the given type. It returns nil
// if no matching plugin is registered
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	for _, entry := range pluginEntries {
		if entry.Type == pluginType && entry.Name == pluginName {
			return entry.NewFromOptionsFunc()
		}
	}
	return nil
}

// Configure hands the named plugin its logger and metrics registry. Like
// SetPluginOption, it must be called before the plugin is instantiated.
// Plugins without a configure hook accept the call as a no-op.
func Configure(
	pluginType PluginType,
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) error {
	for _, entry := range pluginEntries {
		if entry.Type != pluginType || entry.Name != pluginName {
			continue
		}
		if entry.ConfigureFunc != nil {
			entry.ConfigureFunc(logger, promRegistry)
		}
		return nil
	}
	return fmt.Errorf(
		"plugin %s of type %s not found",
		pluginName,
		PluginTypeName(pluginType),
	)
}

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
	"os"
	"strconv"
	"strings"
)

// envVarPrefix is prepended to derived plugin option environment variable
// names, unless the option specifies a CustomEnvVar
const envVarPrefix = "VESTRY"

// FlagSet is the subset of flag registration functions shared by
// flag.FlagSet and pflag.FlagSet, so plugin options can be populated into
// either the stdlib or the cobra flag set
type FlagSet interface {
	StringVar(p *string, name string, value string, usage string)
	BoolVar(p *bool, name string, value bool, usage string)
	IntVar(p *int, name string, value int, usage string)
	Uint64Var(p *uint64, name string, value uint64, usage string)
}

// PopulateCmdlineOptions registers a command line flag for every option of
// every registered plugin. Flags are named <type>-<plugin>-<option>
func PopulateCmdlineOptions(fs FlagSet) error {
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		for _, opt := range entry.Options {
			flagName := fmt.Sprintf(
				"%s-%s-%s",
				PluginTypeName(entry.Type),
				entry.Name,
				opt.Name,
			)
			switch opt.Type {
			case PluginOptionTypeString:
				dest, ok := opt.Dest.(*string)
				if !ok {
					return fmt.Errorf(
						"invalid destination type for option %s",
						flagName,
					)
				}
				defaultValue, _ := opt.DefaultValue.(string)
				fs.StringVar(dest, flagName, defaultValue, opt.Description)
			case PluginOptionTypeBool:
				dest, ok := opt.Dest.(*bool)
				if !ok {
					return fmt.Errorf(
						"invalid destination type for option %s",
						flagName,
					)
				}
				defaultValue, _ := opt.DefaultValue.(bool)
				fs.BoolVar(dest, flagName, defaultValue, opt.Description)
			case PluginOptionTypeInt:
				dest, ok := opt.Dest.(*int)
				if !ok {
					return fmt.Errorf(
						"invalid destination type for option %s",
						flagName,
					)
				}
				defaultValue, _ := opt.DefaultValue.(int)
				fs.IntVar(dest, flagName, defaultValue, opt.Description)
			case PluginOptionTypeUint:
				dest, ok := opt.Dest.(*uint64)
				if !ok {
					return fmt.Errorf(
						"invalid destination type for option %s",
						flagName,
					)
				}
				defaultValue, _ := opt.DefaultValue.(uint64)
				fs.Uint64Var(dest, flagName, defaultValue, opt.Description)
			default:
				return fmt.Errorf(
					"unknown plugin option type %d for option %s",
					opt.Type,
					flagName,
				)
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin option values parsed from the config file.
// The outer map is keyed on plugin type name, the middle map on plugin name,
// the inner map on option name
func ProcessConfig(
	pluginConfig map[string]map[string]map[string]any,
) error {
	for typeName, plugins := range pluginConfig {
		var pluginType PluginType
		switch typeName {
		case "blob":
			pluginType = PluginTypeBlob
		case "metadata":
			pluginType = PluginTypeMetadata
		default:
			return fmt.Errorf("unknown plugin type: %s", typeName)
		}
		for pluginName, options := range plugins {
			for optionName, value := range options {
				if err := SetPluginOption(
					pluginType,
					pluginName,
					optionName,
					value,
				); err != nil {
					return fmt.Errorf(
						"plugin %s option %s: %w",
						pluginName,
						optionName,
						err,
					)
				}
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin option values from the environment. Options
// map to VESTRY_<TYPE>_<PLUGIN>_<OPTION> unless they name a custom variable
func ProcessEnvVars() error {
	for i := range pluginEntries {
		entry := &pluginEntries[i]
		for _, opt := range entry.Options {
			envVar := opt.CustomEnvVar
			if envVar == "" {
				envVar = optionEnvVar(entry.Type, entry.Name, opt.Name)
			}
			value, ok := os.LookupEnv(envVar)
			if !ok {
				continue
			}
			parsed, err := parseOptionValue(opt.Type, value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
			if err := SetPluginOption(
				entry.Type,
				entry.Name,
				opt.Name,
				parsed,
			); err != nil {
				return fmt.Errorf(
					"plugin %s option %s: %w",
					entry.Name,
					opt.Name,
					err,
				)
			}
		}
	}
	return nil
}

func optionEnvVar(
	pluginType PluginType,
	pluginName string,
	optionName string,
) string {
	return strings.ToUpper(
		strings.ReplaceAll(
			fmt.Sprintf(
				"%s_%s_%s_%s",
				envVarPrefix,
				PluginTypeName(pluginType),
				pluginName,
				optionName,
			),
			"-",
			"_",
		),
	)
}

func parseOptionValue(
	optionType PluginOptionType,
	value string,
) (any, error) {
	switch optionType {
	case PluginOptionTypeString:
		return value, nil
	case PluginOptionTypeBool:
		return strconv.ParseBool(value)
	case PluginOptionTypeInt:
		return strconv.Atoi(value)
	case PluginOptionTypeUint:
		return strconv.ParseUint(value, 10, 64)
	default:
		return nil, fmt.Errorf("unknown plugin option type %d", optionType)
	}
}

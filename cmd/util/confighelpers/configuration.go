// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package confighelpers

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/permissioning/util/colors"
)

var ErrVersion = errors.New("version requested")

// BeginCommonParse loads configuration in increasing priority: flag defaults, config files,
// conf.string, environment variables, then flags set on the command line.
func BeginCommonParse(f *flag.FlagSet, args []string) (*koanf.Koanf, error) {
	return BeginCommonParseWithEnvAliases(f, args, nil)
}

// BeginCommonParseWithEnvAliases is BeginCommonParse that also reads envAliases, a map from
// fixed environment variable names to config keys. Aliases rank below the prefixed
// environment variables and above config files.
func BeginCommonParseWithEnvAliases(f *flag.FlagSet, args []string, envAliases map[string]string) (*koanf.Koanf, error) {
	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			return nil, ErrVersion
		}
	}
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	if f.NArg() != 0 {
		// Unexpected number of parameters
		return nil, fmt.Errorf("unexpected unnamed argument %v", f.Args())
	}

	var k = koanf.New(".")

	// Load defaults from command line defaults, which can be overridden by config file
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	for _, configFile := range k.Strings("conf.file") {
		if err := k.Load(file.Provider(configFile), json.Parser()); err != nil {
			return nil, fmt.Errorf("error loading local config file %s: %w", configFile, err)
		}
	}

	if confString := k.String("conf.string"); confString != "" {
		if err := k.Load(rawbytes.Provider([]byte(confString)), json.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config string: %w", err)
		}
	}

	if err := loadEnvironmentAliases(k, envAliases); err != nil {
		return nil, fmt.Errorf("error loading environment variable aliases: %w", err)
	}

	if err := loadEnvironmentVariables(k); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Any settings specified on the command line override defaults, files and environment
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error loading command line options: %w", err)
	}

	return k, nil
}

// EnvKeyToConfigKey maps PREFIX_FOO__BAR_BAZ to foo-bar.baz.
func EnvKeyToConfigKey(envPrefix string, key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix+"_"))
	// FOO__BAR -> foo-bar to handle dash in config names
	key = strings.ReplaceAll(key, "__", "-")
	return strings.ReplaceAll(key, "_", ".")
}

// ConfigKeyToEnvKey is the inverse of EnvKeyToConfigKey.
func ConfigKeyToEnvKey(envPrefix string, key string) string {
	key = strings.ReplaceAll(key, "-", "__")
	key = strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if envPrefix == "" {
		return key
	}
	return envPrefix + "_" + key
}

func loadEnvironmentAliases(k *koanf.Koanf, aliases map[string]string) error {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	envPrefix := k.String("conf.env-prefix")
	values := make(map[string]interface{})
	for _, name := range names {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		key := aliases[name]
		log.Warn("deprecated environment variable, use the prefixed name instead", "name", name, "replacement", ConfigKeyToEnvKey(envPrefix, key))
		values[key] = value
	}
	if len(values) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(values, "."), nil)
}

func loadEnvironmentVariables(k *koanf.Koanf) error {
	envPrefix := k.String("conf.env-prefix")
	if len(envPrefix) == 0 {
		return nil
	}
	return k.Load(env.ProviderWithValue(envPrefix+"_", ".", func(key string, v string) (string, interface{}) {
		key = EnvKeyToConfigKey(envPrefix, key)
		// If there is a space in the value, split the value into a slice by the space.
		if strings.Contains(v, " ") {
			return key, strings.Split(v, " ")
		}
		return key, v
	}), nil)
}

// EndCommonParse decodes k into config. Keys that config does not declare are errors.
func EndCommonParse(k *koanf.Koanf, config interface{}) error {
	decoderConfig := mapstructure.DecoderConfig{
		ErrorUnused: true,

		// Default values
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(",")),
		Metadata:         nil,
		Result:           config,
		WeaklyTypedInput: true,
	}
	err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{DecoderConfig: &decoderConfig})
	if err != nil {
		return err
	}

	return nil
}

// DumpConfig clears fields that must not be printed, such as secrets, before k is marshalled.
func DumpConfig(k *koanf.Koanf, extraOverrideFields map[string]interface{}) error {
	overrideFields := map[string]interface{}{"conf.dump": false}
	for key, value := range extraOverrideFields {
		overrideFields[key] = value
	}

	err := k.Load(confmap.Provider(overrideFields, "."), nil)
	if err != nil {
		return fmt.Errorf("error removing extra parameters before dump: %w", err)
	}

	return nil
}

func PrintErrorAndExit(err error, usage func(string)) {
	if err != nil && errors.Is(err, flag.ErrHelp) {
		usage(os.Args[0])
		os.Exit(0)
	} else if errors.Is(err, ErrVersion) {
		os.Exit(0)
	} else {
		colors.PrintRed("\nFatal configuration error: ", err.Error())
		usage(os.Args[0])
		os.Exit(1)
	}
}

// GetVersion returns the vcs revision, the revision stripped to its first 8 characters and the vcs time.
func GetVersion() (string, string, string) {
	vcsRevision := "development"
	vcsTime := "development"
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				vcsRevision = setting.Value
			case "vcs.time":
				vcsTime = setting.Value
			}
		}
	}
	strippedRevision := vcsRevision
	if len(strippedRevision) > 8 {
		strippedRevision = strippedRevision[:8]
	}
	return vcsRevision, strippedRevision, vcsTime
}

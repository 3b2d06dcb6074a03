package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads file into config, which must be a pointer to a struct. The values config already holds are the
// defaults. Environment variables override both, named after the key path with "." replaced by "_", for example
// REDIS_RANKING_PREFIX. An empty file reads the environment only.
func Load(file string, config any) error {
	v := viper.New()

	defaults, err := flatten(config)
	if err != nil {
		return fmt.Errorf("mapstructure: %w", err)
	}
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config from file %s: %w", file, err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	return nil
}

// flatten lists every leaf of a struct under its dotted key path, so that each one is known to viper.
func flatten(in any) (map[string]any, error) {
	out := make(map[string]any)
	if err := flattenInto(out, "", in); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out map[string]any, prefix string, in any) error {
	m, ok := in.(map[string]any)
	if !ok {
		m = make(map[string]any)
		if err := mapstructure.Decode(in, &m); err != nil {
			return err
		}
	}

	for k, val := range m {
		key := strings.ToLower(k)
		if prefix != "" {
			key = prefix + "." + key
		}

		if _, nested := val.(map[string]any); nested || reflect.Indirect(reflect.ValueOf(val)).Kind() == reflect.Struct {
			if err := flattenInto(out, key, val); err != nil {
				return err
			}
			continue
		}
		out[key] = val
	}

	return nil
}

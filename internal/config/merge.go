package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Merge deep-merges a YAML (or JSON) document over base and returns the
// result. Maps merge key by key; scalars and lists replace. Unknown keys are
// ignored. base is not modified.
func Merge(base *Config, data []byte) (*Config, error) {
	var override map[string]interface{}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, err
	}

	baseData, err := yaml.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to encode base config: %w", err)
	}

	var merged map[string]interface{}
	if err := yaml.Unmarshal(baseData, &merged); err != nil {
		return nil, fmt.Errorf("failed to decode base config: %w", err)
	}

	mergeMaps(merged, override)

	out, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(out, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func mergeMaps(dst, src map[string]interface{}) {
	for key, value := range src {
		srcMap, srcOK := value.(map[string]interface{})
		dstMap, dstOK := dst[key].(map[string]interface{})
		if srcOK && dstOK {
			mergeMaps(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
}

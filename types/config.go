package types

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunConfigJson is the on-disk shape of the run configuration. The scripts
// can be deployed with `ckb-cli wallet transfer --data-path ...`.
type RunConfigJson struct {
	// Type script (validator)
	TypeDep    CellDep `json:"type_dep"`
	TypeScript Script  `json:"type_script"`
	// Lock script
	LockDep    CellDep `json:"lock_dep"`
	LockScript Script  `json:"lock_script"`
}

// RunConfig is the loaded service configuration: the generator binary the
// execution engine runs, plus the script/dep descriptors every constructed
// transaction references.
type RunConfig struct {
	Generator  []byte
	TypeDep    CellDep
	TypeScript Script
	LockDep    CellDep
	LockScript Script
}

// LoadRunConfig reads the JSON config and the generator binary.
func LoadRunConfig(configPath, generatorPath string) (*RunConfig, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	var cfg RunConfigJson
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}
	generator, err := os.ReadFile(generatorPath)
	if err != nil {
		return nil, fmt.Errorf("read generator %s: %w", generatorPath, err)
	}
	return &RunConfig{
		Generator:  generator,
		TypeDep:    cfg.TypeDep,
		TypeScript: cfg.TypeScript,
		LockDep:    cfg.LockDep,
		LockScript: cfg.LockScript,
	}, nil
}

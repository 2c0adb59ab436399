package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vm-inventory/internal/model"
)

// rangesFile is the on-disk layout of a capacity ranges file.
type rangesFile struct {
	Ranges []model.CapacityRange `yaml:"ranges"`
}

// LoadRanges reads capacity range definitions from the specified YAML file.
//
//	ranges:
//	  - {min: 0, max: 149, label: "0 MB - 149 MB"}
//	  - {min: 150, max: 2000000, label: "150 MB - 2 TB"}
func LoadRanges(rangesPath string) ([]model.CapacityRange, error) {
	if rangesPath == "" {
		return nil, fmt.Errorf("ranges file path is required")
	}

	// Check if file exists
	if _, err := os.Stat(rangesPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("ranges file not found: %s", rangesPath)
	}

	data, err := os.ReadFile(rangesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranges file: %w", err)
	}

	var f rangesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse ranges file: %w", err)
	}

	if len(f.Ranges) == 0 {
		return nil, fmt.Errorf("no ranges defined in file: %s", rangesPath)
	}

	for i, r := range f.Ranges {
		if r.Label == "" {
			return nil, fmt.Errorf("range at index %d has no label", i)
		}
	}

	return f.Ranges, nil
}

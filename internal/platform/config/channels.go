package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelsFile is the YAML document listing the recognized channel ids:
//
//	recognized_channels:
//	  - left_arm_joint1
//	  - left_arm_joint2
type ChannelsFile struct {
	RecognizedChannels []string `yaml:"recognized_channels"`
}

// LoadChannels reads the recognized channel ids from a YAML file.
func LoadChannels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	var f ChannelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse channels file %s: %w", path, err)
	}
	if len(f.RecognizedChannels) == 0 {
		return nil, errors.New("channels file lists no recognized_channels")
	}
	return f.RecognizedChannels, nil
}

// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"

	"github.com/tailscale/hujson"
	"sigs.k8s.io/yaml"
)

// ContainerConfig names one container the daemon serves; Warm pre-loads
// its dictionaries at startup.
type ContainerConfig struct {
	Path    string `json:"path"`
	IdxPath string `json:"idx_path,omitempty"`
	Warm    bool   `json:"warm,omitempty"`
}

// Config is objpackd's on-disk configuration: a socket path and a set of
// named containers, each independently warmable at startup.
type Config struct {
	SocketPath string                     `json:"socket_path"`
	Containers map[string]ContainerConfig `json:"containers"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SocketPath: "/run/objpackd.sock",
		Containers: map[string]ContainerConfig{},
	}
}

// LoadConfig reads cfg from path. YAML files (.yaml/.yml) are parsed with
// sigs.k8s.io/yaml; anything else is treated as JSONC and standardized
// with tailscale/hujson before being unmarshaled as JSON, the same
// two-step the tooling in this pack uses for JSONC config files.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing YAML config %s: %w", path, err)
		}
		return cfg, nil
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("parsing JSONC config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func isYAMLPath(path string) bool {
	n := len(path)
	return n >= 5 && path[n-5:] == ".yaml" || n >= 4 && path[n-4:] == ".yml"
}

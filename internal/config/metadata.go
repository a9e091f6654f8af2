package config

import (
	"path/filepath"

	"github.com/mcarch/mcarch-editor/internal/constants"
)

type Metadata struct {
	ConfigPath string
}

func NewMetadata(configPath string) Metadata {
	if configPath == "" {
		configPath = constants.ConfigFileName
	}
	return Metadata{ConfigPath: configPath}
}

func (m Metadata) Dir() string {
	return filepath.Dir(filepath.FromSlash(m.ConfigPath))
}

// ResolvePath turns a path written in the config file into one relative to the
// working directory. Absolute paths are kept.
func (m Metadata) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir(), filepath.FromSlash(path))
}

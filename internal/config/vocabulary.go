package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/partidas/internal/extract"
)

// LoadVocabulary returns the built-in vocabulary extended with the units and
// column labels listed in the file at path. Files ending in .yaml or .yml are
// read as YAML, anything else as TOML. An empty path yields the defaults.
//
//	units = ["BULTO", "CUBETA"]
//	column_labels = ["partida no"]
func LoadVocabulary(path string) (extract.Vocabulary, error) {
	v := extract.DefaultVocabulary()
	if path == "" {
		return v, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("read vocabulary: %w", err)
	}
	var extra extract.Vocabulary
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &extra)
	default:
		err = toml.Unmarshal(data, &extra)
	}
	if err != nil {
		return v, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	return v.Merge(extra), nil
}

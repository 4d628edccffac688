package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadDotEnv copies variables from a dotenv file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// fieldsFile is the mapping form of a fields file:
//
//	fields:
//	  - Address
//	  - Price
type fieldsFile struct {
	Fields []string `yaml:"fields"`
}

// LoadFields reads an ordered list of field names from a YAML file. The file
// is either a top-level sequence or a mapping with a "fields" key.
func LoadFields(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []string
	if err := yaml.Unmarshal(b, &list); err != nil {
		var ff fieldsFile
		if err := yaml.Unmarshal(b, &ff); err != nil {
			return nil, fmt.Errorf("parse fields file %s: %w", path, err)
		}
		list = ff.Fields
	}

	fields := TrimFields(list)
	if len(fields) == 0 {
		return nil, fmt.Errorf("fields file %s: no field names", path)
	}
	return fields, nil
}

// TrimFields trims every entry and drops blanks, keeping the original order.
func TrimFields(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

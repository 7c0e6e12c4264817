// Package loader turns JSON, NDJSON, YAML (single or multi-document), TOML
// and CSV input into grid items.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmptyInput is returned for blank input.
var ErrEmptyInput = errors.New("empty input")

// Format names an input format.
type Format string

const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatCSV    Format = "csv"
)

// FormatFromPath guesses a format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".csv":
		return FormatCSV
	}
	return FormatAuto
}

// Detect guesses the format of input from its content.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	switch {
	case strings.Contains(input, "\n---") || strings.HasPrefix(input, "---"):
		return FormatYAML
	case isLikelyNDJSON(strings.Split(input, "\n")):
		return FormatNDJSON
	case isLikelyTOML(input):
		return FormatTOML
	case strings.HasPrefix(input, "{") || strings.HasPrefix(input, "["):
		return FormatJSON
	case isLikelyCSV(input):
		return FormatCSV
	}
	return FormatYAML
}

// Documents parses input into its top-level documents. Single-document
// formats return one element.
func Documents(input string, format Format) ([]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if format == FormatAuto {
		format = Detect(input)
	}
	switch format {
	case FormatJSON:
		var data any
		if err := json.Unmarshal([]byte(input), &data); err != nil {
			// {a: 1} is not JSON but is a YAML flow mapping.
			if docs, yerr := loadYAML(input); yerr == nil {
				return docs, nil
			}
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return []any{data}, nil
	case FormatNDJSON:
		return loadNDJSON(input)
	case FormatTOML:
		var data map[string]any
		if err := toml.Unmarshal([]byte(input), &data); err != nil {
			return nil, fmt.Errorf("invalid TOML: %w", err)
		}
		return []any{data}, nil
	case FormatCSV:
		rows, err := loadCSV(strings.NewReader(input))
		if err != nil {
			return nil, err
		}
		return []any{rows}, nil
	default:
		return loadYAML(input)
	}
}

// Load reads r and converts it to a Dataset.
func Load(r io.Reader, format Format, opts Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if format == FormatCSV || (format == FormatAuto && Detect(string(data)) == FormatCSV) {
		return loadCSVDataset(strings.NewReader(string(data)), opts)
	}
	docs, err := Documents(string(data), format)
	if err != nil {
		return nil, err
	}
	return FromDocuments(docs, opts)
}

// LoadFile reads path, using its extension as a format hint.
func LoadFile(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := Load(f, FormatFromPath(path), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// loadYAML decodes every document of a YAML stream; empty documents are
// skipped.
func loadYAML(input string) ([]any, error) {
	var results []any
	decoder := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc != nil {
			results = append(results, doc)
		}
	}
	if len(results) == 0 {
		return nil, errors.New("no documents found in YAML input")
	}
	return results, nil
}

// loadNDJSON parses one JSON value per line. Lines that are not JSON are
// kept as plain strings.
func loadNDJSON(input string) ([]any, error) {
	lines := strings.Split(input, "\n")
	results := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}
	if len(results) == 0 {
		return nil, ErrEmptyInput
	}
	return results, nil
}

// isLikelyNDJSON requires several non-empty lines, most of them starting
// with '{' or '['. A YAML list of bare "- name" items stays YAML.
func isLikelyNDJSON(lines []string) bool {
	jsonCount, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmpty > 1 && jsonCount > nonEmpty/2
}

var (
	// [server], [[items]], ["table name"], [database.credentials]. JSON
	// arrays like [1, 2, 3] do not match.
	tomlSection = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// name = "value", database.host = "localhost"; YAML uses key: value.
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

func isLikelyTOML(input string) bool {
	sections, keyValues, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			keyValues++
		}
	}
	return sections > 0 || (nonEmpty > 0 && keyValues > nonEmpty/2)
}

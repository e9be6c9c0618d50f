package config

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/tweeteater/pkg/tweeteater/engagement"
	"github.com/cognicore/tweeteater/pkg/tweeteater/record"
)

// ScreenNames is a set of user handles.
type ScreenNames map[string]struct{}

// LoadScreenNames loads a handle list. The format follows the extension:
//
//	.json        object (keys are handles) or array of strings
//	.yaml, .yml  `terms:` list or a bare list
//	.csv, .txt   first column of every row, no header
func LoadScreenNames(path string) (ScreenNames, error) {
	names, err := loadList(path)
	if err != nil {
		return nil, fmt.Errorf("load screen names %s: %w", path, err)
	}
	set := make(ScreenNames, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set, nil
}

// LoadIDs loads a tracked-id list in any of the LoadScreenNames formats.
func LoadIDs(path string) (engagement.IDSet, error) {
	values, err := loadList(path)
	if err != nil {
		return nil, fmt.Errorf("load ids %s: %w", path, err)
	}
	ids := engagement.NewIDSet()
	for _, v := range values {
		if id, ok := record.ParseID(strings.TrimSpace(v)); ok {
			ids.Add(id)
		}
	}
	return ids, nil
}

func loadList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return jsonList(data)
	case ".yaml", ".yml":
		return yamlList(data)
	case ".csv", ".txt", "":
		return firstColumn(data)
	default:
		return nil, fmt.Errorf("unsupported list format %q", filepath.Ext(path))
	}
}

func jsonList(data []byte) ([]string, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	var out []string
	switch v := raw.(type) {
	case map[string]any:
		for k := range v {
			out = append(out, k)
		}
	case []any:
		for _, item := range v {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case json.Number:
				out = append(out, s.String())
			default:
				return nil, fmt.Errorf("unexpected list item %v", item)
			}
		}
	default:
		return nil, errors.New("expected a JSON object or array")
	}
	return out, nil
}

// termsList mirrors the `terms:` layout used for word lists.
type termsList struct {
	Terms []string `yaml:"terms"`
}

func yamlList(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	if node.Content[0].Kind == yaml.SequenceNode {
		var out []string
		if err := node.Content[0].Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var tl termsList
	if err := node.Content[0].Decode(&tl); err != nil {
		return nil, err
	}
	return tl.Terms, nil
}

func firstColumn(data []byte) ([]string, error) {
	rd := csv.NewReader(bytes.NewReader(data))
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	var out []string
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > 0 {
			out = append(out, rec[0])
		}
	}
	return out, nil
}

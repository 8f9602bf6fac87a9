package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rug-estimator/internal/estimate"
	"github.com/sells-group/rug-estimator/internal/model"
)

// decodeFile decodes a YAML or JSON file into v based on its extension.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return eris.Wrapf(err, "parse JSON %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return eris.Wrapf(err, "parse YAML %s", path)
		}
	default:
		return eris.Errorf("unsupported input format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	return nil
}

// loadInspection reads an inspection file. The file may hold a bare
// inspection or a request document with an "input" key.
func loadInspection(path string) (model.InspectionInput, error) {
	req, err := loadRequest(path)
	if err != nil {
		return model.InspectionInput{}, err
	}
	return req.Input, nil
}

// loadRequest reads a request document. A bare inspection is accepted and
// wrapped; the file name (without extension) becomes the default reference.
func loadRequest(path string) (estimate.Request, error) {
	var probe map[string]any
	if err := decodeFile(path, &probe); err != nil {
		return estimate.Request{}, err
	}

	var req estimate.Request
	if _, ok := probe["input"]; ok {
		if err := decodeFile(path, &req); err != nil {
			return estimate.Request{}, err
		}
	} else if err := decodeFile(path, &req.Input); err != nil {
		return estimate.Request{}, err
	}

	if req.Reference == "" {
		req.Reference = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return req, nil
}

// listInputFiles returns the JSON and YAML files in dir, sorted by name.
func listInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read dir %s", dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "write JSON")
}

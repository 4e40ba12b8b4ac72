package layout

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/uitmedia/framefusion/pkg/errors"
)

// Document is a layout saved to disk.
type Document struct {
	// Frame optionally names the frame image the layout was designed on.
	Frame string        `json:"frame,omitempty" toml:"frame,omitempty" yaml:"frame,omitempty"`
	Slots []Placeholder `json:"slots" toml:"slot" yaml:"slots"`
}

// LoadDocument reads a layout from a .toml, .yaml/.yml or .json file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read layout %s", path)
	}
	doc, err := DecodeDocument(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeDocument parses a layout. The format is chosen by ext, which may be
// given with or without the leading dot.
func DecodeDocument(data []byte, ext string) (*Document, error) {
	var doc Document
	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		_, err = toml.Decode(string(data), &doc)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &doc)
	case "json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported layout format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "parse layout")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks every slot has an id, a positive size and a parseable
// constraint.
func (d *Document) Validate() error {
	if len(d.Slots) == 0 {
		return errors.New(errors.ErrCodeInvalidLayout, "layout has no slots")
	}
	seen := make(map[string]bool, len(d.Slots))
	for i, s := range d.Slots {
		if s.ID == "" {
			return errors.New(errors.ErrCodeInvalidLayout, "slot %d has no id", i+1)
		}
		if seen[s.ID] {
			return errors.New(errors.ErrCodeInvalidLayout, "duplicate slot id %q", s.ID)
		}
		seen[s.ID] = true
		if !(s.Width > 0) || !(s.Height > 0) {
			return errors.New(errors.ErrCodeInvalidLayout, "slot %q has no area", s.ID)
		}
		if s.AspectRatio != "" {
			if _, ok := s.Ratio(); !ok {
				return errors.New(errors.ErrCodeInvalidAspectRatio, "slot %q has invalid aspect ratio %q", s.ID, s.AspectRatio)
			}
		}
	}
	return nil
}

// Encode renders the document in the format named by ext.
func (d *Document) Encode(ext string) ([]byte, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
		}
		return buf.Bytes(), nil
	case "yaml", "yml":
		return yaml.Marshal(d)
	case "json":
		return json.MarshalIndent(d, "", "  ")
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported layout format %q", ext)
}

// Save writes the document to path, choosing the format from its extension.
func (d *Document) Save(path string) error {
	data, err := d.Encode(filepath.Ext(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

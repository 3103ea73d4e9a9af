package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingElements is returned when a document has no "elements" key.
var ErrMissingElements = errors.New("document has no elements key")

// Document is the canonical flat JSON shape exchanged between stages:
// {"model": [...], "elements": [...]}.
type Document struct {
	Model    []Element `json:"model"`
	Elements []Element `json:"elements"`
}

// ParseDocument decodes a flat JSON document. Unparseable input and input
// without an "elements" key are rejected rather than partially processed.
func ParseDocument(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	elemsRaw, ok := raw["elements"]
	if !ok {
		return nil, ErrMissingElements
	}

	doc := &Document{}
	if err := decodeElements(elemsRaw, &doc.Elements); err != nil {
		return nil, fmt.Errorf("failed to parse elements: %w", err)
	}
	if modelRaw, ok := raw["model"]; ok {
		if err := decodeElements(modelRaw, &doc.Model); err != nil {
			return nil, fmt.Errorf("failed to parse model: %w", err)
		}
	}
	for _, m := range doc.Model {
		if m.Type() == "" {
			m.Set("type", TypeModel)
		}
	}
	return doc, nil
}

func decodeElements(raw json.RawMessage, out *[]Element) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		*out = []Element{}
		return nil
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	elems := make([]Element, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		elems = append(elems, Element(it))
	}
	*out = elems
	return nil
}

// Marshal encodes the document with two-space indentation.
func (d *Document) Marshal() ([]byte, error) {
	out := Document{Model: d.Model, Elements: d.Elements}
	if out.Model == nil {
		out.Model = []Element{}
	}
	if out.Elements == nil {
		out.Elements = []Element{}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Model:    make([]Element, 0, len(d.Model)),
		Elements: make([]Element, 0, len(d.Elements)),
	}
	for _, m := range d.Model {
		out.Model = append(out.Model, m.Clone())
	}
	for _, e := range d.Elements {
		out.Elements = append(out.Elements, e.Clone())
	}
	return out
}

// MasterModelID returns the id of the first model entry, or "" when the
// document carries no model.
func (d *Document) MasterModelID() string {
	for _, m := range d.Model {
		if id := m.ID(); id != "" {
			return id
		}
	}
	return ""
}

// KnownIDs returns the set of ids of all model entries and elements.
func (d *Document) KnownIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(d.Model)+len(d.Elements))
	for _, m := range d.Model {
		if id := m.ID(); id != "" {
			ids[id] = struct{}{}
		}
	}
	for _, e := range d.Elements {
		if id := e.ID(); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// Index returns an id -> element lookup over model entries and elements.
// Later duplicates do not replace earlier ones.
func (d *Document) Index() map[string]Element {
	idx := make(map[string]Element, len(d.Model)+len(d.Elements))
	for _, m := range d.Model {
		if id := m.ID(); id != "" {
			if _, ok := idx[id]; !ok {
				idx[id] = m
			}
		}
	}
	for _, e := range d.Elements {
		if id := e.ID(); id != "" {
			if _, ok := idx[id]; !ok {
				idx[id] = e
			}
		}
	}
	return idx
}

package model

import (
	"encoding/json"
	"fmt"
)

// Model is the serialized form of one object in a client document.
type Model struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

// ClientDocument is the mutable set of objects shown on one page. Objects
// added during a request stay live until the document is marshalled, so
// changes made after Add or Register are still persisted.
type ClientDocument struct {
	DocID string

	roots  []string
	models map[string]Model
	live   map[string]PlotObject
	order  []string
}

func NewClientDocument(docID string) *ClientDocument {
	return &ClientDocument{
		DocID:  docID,
		models: make(map[string]Model),
		live:   make(map[string]PlotObject),
	}
}

// Add makes obj a root of the document. Adding the same id twice is a no-op.
func (d *ClientDocument) Add(obj PlotObject) {
	d.Register(obj)
	id := obj.ID()
	for _, r := range d.roots {
		if r == id {
			return
		}
	}
	d.roots = append(d.roots, id)
}

// Register records obj as a model of the document without making it a root.
func (d *ClientDocument) Register(obj PlotObject) {
	id := obj.ID()
	if _, ok := d.live[id]; !ok {
		if _, ok := d.models[id]; !ok {
			d.order = append(d.order, id)
		}
	}
	d.live[id] = obj
}

func (d *ClientDocument) Roots() []string {
	out := make([]string, len(d.roots))
	copy(out, d.roots)
	return out
}

// Has reports whether a model with the given id is in the document.
func (d *ClientDocument) Has(id string) bool {
	if _, ok := d.live[id]; ok {
		return true
	}
	_, ok := d.models[id]
	return ok
}

// Models serializes every model in insertion order.
func (d *ClientDocument) Models() ([]Model, error) {
	out := make([]Model, 0, len(d.order))
	for _, id := range d.order {
		obj, ok := d.live[id]
		if !ok {
			out = append(out, d.models[id])
			continue
		}
		attrs, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("marshal model %s: %w", id, err)
		}
		m := Model{ID: id, Attributes: attrs}
		if t, ok := obj.(Typed); ok {
			m.Type = t.Type()
		}
		out = append(out, m)
	}
	return out, nil
}

type clientDocumentJSON struct {
	DocID  string   `json:"docid"`
	Roots  []string `json:"roots"`
	Models []Model  `json:"models"`
}

func (d *ClientDocument) MarshalJSON() ([]byte, error) {
	models, err := d.Models()
	if err != nil {
		return nil, err
	}
	roots := d.roots
	if roots == nil {
		roots = []string{}
	}
	return json.Marshal(clientDocumentJSON{DocID: d.DocID, Roots: roots, Models: models})
}

func (d *ClientDocument) UnmarshalJSON(data []byte) error {
	var raw clientDocumentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	docID := d.DocID
	*d = *NewClientDocument(raw.DocID)
	if d.DocID == "" {
		d.DocID = docID
	}
	d.roots = raw.Roots
	for _, m := range raw.Models {
		if _, ok := d.models[m.ID]; !ok {
			d.order = append(d.order, m.ID)
		}
		d.models[m.ID] = m
	}
	return nil
}

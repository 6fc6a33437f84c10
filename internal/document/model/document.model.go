package model

import (
	"errors"
	"time"
)

// ErrDataIntegrity is matched by every DataIntegrityError.
var ErrDataIntegrity = errors.New("data integrity violation")

// DataIntegrityError reports a document name or identity that already exists.
type DataIntegrityError struct {
	Message string
}

func (e *DataIntegrityError) Error() string { return e.Message }

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// DocumentRecord is the persisted entry that owns a page's content.
type DocumentRecord struct {
	DocID     string    `json:"docid"`
	Title     string    `json:"title"`
	OwnerID   string    `json:"owner_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DocumentMetadata struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	IsOwner   bool      `json:"is_owner"`
}

type CreateDocResponse struct {
	DocID string `json:"document_id"`
}

// GeneratedClass is a client-side model class emitted alongside an object.
type GeneratedClass struct {
	Module string `json:"module"`
	Class  string `json:"class"`
	Parent string `json:"parent"`
}

// PlotObject is anything that can be embedded on a page.
type PlotObject interface {
	ID() string
}

// Typed objects report their client-side model type.
type Typed interface {
	Type() string
}

type GeneratedClassesProvider interface {
	ExtraGeneratedClasses() []GeneratedClass
}

type ScriptsProvider interface {
	ExtraScripts() []string
}

type JSProvider interface {
	ExtraJS() []string
}

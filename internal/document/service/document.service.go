package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jxstanford/bokeh/internal/document/model"
	"github.com/jxstanford/bokeh/internal/document/repository"
	"github.com/jxstanford/bokeh/socket"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrForbidden = errors.New("unauthorized")
)

// Publisher fans stored documents out to live viewers.
type Publisher interface {
	Publish(docID string, content []byte)
	RemoveDocument(docID string)
}

type DocumentService struct {
	Repo *repository.DocumentRepository
	Hub  Publisher
}

func NewDocumentService(repo *repository.DocumentRepository, hub Publisher) *DocumentService {
	return &DocumentService{Repo: repo, Hub: hub}
}

// MakeDocument creates a document titled title for user. A title the user
// already owns is a *model.DataIntegrityError.
func (s *DocumentService) MakeDocument(ctx context.Context, user *model.User, title string) (*model.DocumentRecord, error) {
	exists, err := s.Repo.TitleExists(ctx, user.ID, title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &model.DataIntegrityError{Message: "Document already exists"}
	}

	docID := uuid.NewString()
	content, err := json.Marshal(model.NewClientDocument(docID))
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, docID, string(content), user.ID, title); err != nil {
		return nil, err
	}
	return &model.DocumentRecord{DocID: docID, Title: title, OwnerID: user.ID}, nil
}

// GetDocument loads the client document for docID, or a fresh empty one if
// nothing has been stored yet.
func (s *DocumentService) GetDocument(ctx context.Context, docID string) (*model.ClientDocument, error) {
	doc := model.NewClientDocument(docID)
	content, err := s.Repo.GetContent(ctx, docID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && len(content) == 0) {
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", docID, err)
	}
	doc.DocID = docID
	return doc, nil
}

func (s *DocumentService) StoreDocument(ctx context.Context, doc *model.ClientDocument) error {
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.DocID, err)
	}
	if err := s.Repo.UpdateContent(ctx, doc.DocID, content); err != nil {
		return err
	}
	if s.Hub != nil {
		s.Hub.Publish(doc.DocID, content)
	}
	return nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID string) ([]model.DocumentMetadata, error) {
	return s.Repo.GetDocumentsByUser(ctx, userID)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, docID, userID string) error {
	ownerID, err := s.Repo.GetOwnerID(ctx, docID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return fmt.Errorf("%w: only owner can delete", ErrForbidden)
	}

	if err := s.Repo.Delete(ctx, docID); err != nil {
		return err
	}
	if s.Hub != nil {
		s.Hub.RemoveDocument(docID)
	}
	return nil
}

// Role returns the user's role on a document: owners write, collaborators
// get their stored role.
func (s *DocumentService) Role(ctx context.Context, docID, userID string) (string, error) {
	ownerID, err := s.Repo.GetOwnerID(ctx, docID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if ownerID == userID {
		return socket.RoleWriter, nil
	}
	role, err := s.Repo.GetCollaboratorRole(ctx, docID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrForbidden
	}
	return role, err
}

// ResolveRole adapts Role to the websocket hub's resolver.
func (s *DocumentService) ResolveRole(docID, userID string) (string, bool) {
	role, err := s.Role(context.Background(), docID, userID)
	if err != nil {
		return "", false
	}
	return role, true
}

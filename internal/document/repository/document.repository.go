package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jxstanford/bokeh/internal/document/model"
	"github.com/jxstanford/bokeh/pkg/logger"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

// Create inserts a document. A duplicate id or (owner, title) pair comes back
// as a *model.DataIntegrityError.
func (r *DocumentRepository) Create(ctx context.Context, id, content, ownerID, title string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO documents (id, content, updated_at, owner_id, title) VALUES ($1, $2, NOW(), $3, $4)`,
		id, content, ownerID, title)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			logger.Sugar.Warnf("Document %q already exists for user %s", title, ownerID)
			return &model.DataIntegrityError{Message: "Document already exists"}
		}
		logger.Sugar.Errorf("Failed to create document: %v", err)
	}
	return err
}

func (r *DocumentRepository) TitleExists(ctx context.Context, ownerID, title string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM documents WHERE owner_id = $1 AND title = $2)", ownerID, title).Scan(&exists)
	if err != nil {
		logger.Sugar.Errorf("Failed to check title %q for user %s: %v", title, ownerID, err)
	}
	return exists, err
}

// GetContent returns the stored client document JSON. A missing row is
// reported as sql.ErrNoRows.
func (r *DocumentRepository) GetContent(ctx context.Context, docID string) ([]byte, error) {
	var content []byte
	err := r.DB.QueryRowContext(ctx, "SELECT content FROM documents WHERE id = $1", docID).Scan(&content)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load content for doc %s: %v", docID, err)
	}
	return content, err
}

// UpdateContent overwrites the stored JSON (lib/pq requires string for JSONB, not []byte).
func (r *DocumentRepository) UpdateContent(ctx context.Context, docID string, content []byte) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE documents SET content = $1, updated_at = NOW() WHERE id = $2`, string(content), docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update content for doc %s: %v", docID, err)
	}
	return err
}

func (r *DocumentRepository) GetOwnerID(ctx context.Context, docID string) (string, error) {
	var ownerID string
	err := r.DB.QueryRowContext(ctx, "SELECT owner_id FROM documents WHERE id = $1", docID).Scan(&ownerID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get owner ID for doc %s: %v", docID, err)
	}
	return ownerID, err
}

func (r *DocumentRepository) GetCollaboratorRole(ctx context.Context, docID, userID string) (string, error) {
	var role string
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM collaborators WHERE document_id = $1 AND user_id = $2", docID, userID).Scan(&role)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get collaborator role: %v", err)
	}
	return role, err
}

func (r *DocumentRepository) GetDocumentsByUser(ctx context.Context, userID string) ([]model.DocumentMetadata, error) {
	query := `
		SELECT id, title, updated_at, owner_id FROM documents WHERE owner_id = $1
		UNION
		SELECT d.id, d.title, d.updated_at, d.owner_id FROM documents d JOIN collaborators c ON d.id = c.document_id WHERE c.user_id = $1
		ORDER BY updated_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get documents for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	docs := []model.DocumentMetadata{}
	for rows.Next() {
		var doc model.DocumentMetadata
		var ownerID string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.UpdatedAt, &ownerID); err != nil {
			continue
		}
		doc.IsOwner = ownerID == userID
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, docID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete doc %s: %v", docID, err)
	}
	return err
}

// LoadContent and SaveContent let the websocket hub persist through the
// repository without a request context.
func (r *DocumentRepository) LoadContent(docID string) ([]byte, error) {
	return r.GetContent(context.Background(), docID)
}

func (r *DocumentRepository) SaveContent(docID string, content []byte) error {
	return r.UpdateContent(context.Background(), docID, content)
}

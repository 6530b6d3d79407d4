package driven

import (
	"context"
	"errors"

	"github.com/efisher/markreview/internal/domain/model"
)

// ErrDocumentNotFound indicates the requested document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore defines the driven port for reviewed-document persistence.
// Get returns ErrDocumentNotFound for an unknown path. Upsert inserts or
// replaces the document content for a path.
type DocumentStore interface {
	Upsert(ctx context.Context, doc model.Document) error
	Get(ctx context.Context, path string) (*model.Document, error)
	List(ctx context.Context) ([]model.Document, error)
	Delete(ctx context.Context, path string) error
}

package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/drivingschool/internal/persistence"
)

// DirectoryRepository implements persistence.DirectoryRepository over the
// usuarios table.
type DirectoryRepository struct {
	store *Store
}

// NewDirectoryRepository creates a directory repository backed by store.
func NewDirectoryRepository(store *Store) *DirectoryRepository {
	return &DirectoryRepository{store: store}
}

// ListParticipantsByRoles returns directory entries whose role is in roles.
func (r *DirectoryRepository) ListParticipantsByRoles(ctx context.Context, roles []string) ([]persistence.Participant, error) {
	return r.selectIn(ctx, "role", roles)
}

// ListParticipantsByDocumentIDs returns directory entries for the given document ids.
func (r *DirectoryRepository) ListParticipantsByDocumentIDs(ctx context.Context, documentIDs []string) ([]persistence.Participant, error) {
	return r.selectIn(ctx, "document_id", documentIDs)
}

func (r *DirectoryRepository) selectIn(ctx context.Context, column string, values []string) ([]persistence.Participant, error) {
	if len(values) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT document_id, name, email, role
		FROM usuarios
		WHERE `+column+` IN (?)
		ORDER BY name ASC, document_id ASC
	`, values)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: build directory query: %w", err)
	}

	db := r.store.db
	var participants []persistence.Participant
	if err := db.SelectContext(ctx, &participants, db.Rebind(query), args...); err != nil {
		return nil, r.store.mapper.MapError(err)
	}
	return participants, nil
}

// UpsertParticipant inserts or replaces a directory entry keyed by document id.
func (r *DirectoryRepository) UpsertParticipant(ctx context.Context, participant persistence.Participant) error {
	if participant.DocumentID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO usuarios (document_id, name, email, role)
		VALUES (:document_id, :name, :email, :role)
		ON CONFLICT (document_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role
	`
	_, err := r.store.db.NamedExecContext(ctx, query, participant)
	return r.store.mapper.MapError(err)
}

package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poiesic/doxa/storage"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

const (
	positionIndexName = "paper_chunks_unique_idx"
	identityIndexName = "paper_chunks_identity_idx"
)

// mapError translates driver errors into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case identityIndexName:
		return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, pgErr.Detail)
	case positionIndexName:
		return fmt.Errorf("%w: %s", storage.ErrIndexConflict, pgErr.Detail)
	default:
		// Unknown unique index; the row was not written either way.
		return fmt.Errorf("%w: %w", storage.ErrIndexConflict, err)
	}
}

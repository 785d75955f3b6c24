package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"domainreg/internal/registrar/models"
	id "domainreg/pkg/domain"
	"domainreg/pkg/platform/sentinel"
)

// PostgresStore persists registrars in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registrar store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, r *models.Registrar) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registrars (client_id, name, state, allowed_tlds, block_premium_names, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_id) DO UPDATE SET
			name = EXCLUDED.name,
			state = EXCLUDED.state,
			allowed_tlds = EXCLUDED.allowed_tlds,
			block_premium_names = EXCLUDED.block_premium_names,
			updated_at = EXCLUDED.updated_at
	`, string(r.ClientID), r.Name, string(r.State), pq.Array(r.AllowedTLDs), r.BlockPremiumNames, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save registrar: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByClientID(ctx context.Context, clientID id.ClientID) (*models.Registrar, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT client_id, name, state, allowed_tlds, block_premium_names, created_at, updated_at
		FROM registrars WHERE client_id = $1
	`, string(clientID))
	r, err := scanRegistrar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registrar: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Registrar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT client_id, name, state, allowed_tlds, block_premium_names, created_at, updated_at
		FROM registrars ORDER BY client_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list registrars: %w", err)
	}
	defer rows.Close()
	var out []*models.Registrar
	for rows.Next() {
		r, err := scanRegistrar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registrar: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistrar(row scanner) (*models.Registrar, error) {
	var (
		r        models.Registrar
		clientID string
		state    string
	)
	if err := row.Scan(&clientID, &r.Name, &state, pq.Array(&r.AllowedTLDs), &r.BlockPremiumNames, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ClientID = id.ClientID(clientID)
	r.State = models.State(state)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

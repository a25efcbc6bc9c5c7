package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var _ ShareRepository = (*ShareRepo)(nil)

// shareIDLength is the generated identifier length. At 10 hex characters the
// collision probability is negligible, so inserts skip a uniqueness re-check.
const shareIDLength = 10

// ShareRepo handles database operations for shared offer lists.
type ShareRepo struct {
	db *DB
}

func NewShareRepo(db *DB) *ShareRepo {
	return &ShareRepo{db: db}
}

func (r *ShareRepo) Create(offersJSON string) (string, error) {
	id := newShareID()

	_, err := r.db.Exec(`
		INSERT INTO shared_links (id, offers_json)
		VALUES (?, ?)
	`, id, offersJSON)
	if err != nil {
		return "", fmt.Errorf("failed to store shared link: %w", err)
	}

	return id, nil
}

func (r *ShareRepo) Get(id string) (*SharedLink, error) {
	var link SharedLink
	err := r.db.QueryRow(`
		SELECT id, offers_json, created_at
		FROM shared_links
		WHERE id = ?
	`, id).Scan(&link.ID, &link.OffersJSON, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shared link: %w", err)
	}

	return &link, nil
}

func (r *ShareRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM shared_links").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count shared links: %w", err)
	}
	return count, nil
}

func newShareID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:shareIDLength]
}

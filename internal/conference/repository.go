package conference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// ErrNotFound is returned when no conference or seat type matches.
var ErrNotFound = errors.New("conference not found")

// ErrSlugTaken is returned when a create collides with an existing slug.
var ErrSlugTaken = errors.New("conference slug already taken")

// Repo encapsulates the conference reference-data queries.
type Repo struct {
	db *sql.DB
}

// NewRepo constructs a Repo with the provided DB handle.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Create inserts a new conference.  The caller supplies the id and the
// bcrypt hash of the generated access code.
func (r *Repo) Create(ctx context.Context, c *Conference) error {
	const q = `INSERT INTO conferences
	             (id, slug, name, description, location, owner_name, owner_email, access_code_hash, published)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Slug, c.Name, c.Description, c.Location, c.OwnerName, c.OwnerEmail, c.AccessCodeHash, c.Published)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrSlugTaken
		}
		return fmt.Errorf("conference: create %s: %w", c.Slug, err)
	}
	return r.refresh(ctx, c)
}

// refresh re-reads the DB-defaulted timestamp columns after a write.
func (r *Repo) refresh(ctx context.Context, c *Conference) error {
	const q = `SELECT created_at, updated_at FROM conferences WHERE id = ?`
	if err := r.db.QueryRowContext(ctx, q, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("conference: refresh %s: %w", c.ID, err)
	}
	return nil
}

// GetByID fetches a conference by id, published or not.
func (r *Repo) GetByID(ctx context.Context, id string) (*Conference, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

// GetBySlug fetches a conference by its public slug.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (*Conference, error) {
	return r.get(ctx, `WHERE slug = ?`, slug)
}

func (r *Repo) get(ctx context.Context, where string, arg any) (*Conference, error) {
	q := `SELECT id, slug, name, description, location, owner_name, owner_email,
	             access_code_hash, published, created_at, updated_at
	      FROM conferences ` + where
	var c Conference
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&c.ID, &c.Slug, &c.Name, &c.Description, &c.Location, &c.OwnerName, &c.OwnerEmail,
		&c.AccessCodeHash, &c.Published, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conference: get: %w", err)
	}
	return &c, nil
}

// ListPublished returns the publicly visible conferences ordered by slug.
func (r *Repo) ListPublished(ctx context.Context) ([]*Conference, error) {
	const q = `SELECT id, slug, name, description, location, owner_name, owner_email,
	                  access_code_hash, published, created_at, updated_at
	           FROM conferences WHERE published = 1 ORDER BY slug`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("conference: list: %w", err)
	}
	defer rows.Close()

	var out []*Conference
	for rows.Next() {
		c := new(Conference)
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.Location, &c.OwnerName,
			&c.OwnerEmail, &c.AccessCodeHash, &c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("conference: list scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites the editable fields of a conference.
func (r *Repo) Update(ctx context.Context, c *Conference) error {
	const q = `UPDATE conferences
	           SET name = ?, description = ?, location = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Description, c.Location, c.ID)
	if err != nil {
		return fmt.Errorf("conference: update %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return r.refresh(ctx, c)
}

// SetPublished flips the public visibility of a conference.
func (r *Repo) SetPublished(ctx context.Context, id string, published bool) error {
	const q = `UPDATE conferences
	           SET published = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, published, id)
	if err != nil {
		return fmt.Errorf("conference: publish %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertSeatType creates or rewrites a seat type of a conference.  The
// caller is responsible for telling the availability aggregate about any
// quota change.
func (r *Repo) UpsertSeatType(ctx context.Context, st *SeatType) error {
	const q = `INSERT INTO seat_types (conference_id, name, description, quantity, price_cents)
	           VALUES (?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             description = VALUES(description),
	             quantity = VALUES(quantity),
	             price_cents = VALUES(price_cents),
	             updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, q, st.ConferenceID, st.Name, st.Description, st.Quantity, st.PriceCents)
	if err != nil {
		return fmt.Errorf("conference: upsert seat type %s/%s: %w", st.ConferenceID, st.Name, err)
	}
	return nil
}

// GetSeatType fetches one seat type of a conference.
func (r *Repo) GetSeatType(ctx context.Context, conferenceID, name string) (*SeatType, error) {
	const q = `SELECT conference_id, name, description, quantity, price_cents, created_at, updated_at
	           FROM seat_types WHERE conference_id = ? AND name = ?`
	var st SeatType
	err := r.db.QueryRowContext(ctx, q, conferenceID, name).Scan(
		&st.ConferenceID, &st.Name, &st.Description, &st.Quantity, &st.PriceCents, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conference: get seat type: %w", err)
	}
	return &st, nil
}

// SeatTypes returns the seat types of a conference ordered by name.
func (r *Repo) SeatTypes(ctx context.Context, conferenceID string) ([]SeatType, error) {
	const q = `SELECT conference_id, name, description, quantity, price_cents, created_at, updated_at
	           FROM seat_types WHERE conference_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("conference: seat types %s: %w", conferenceID, err)
	}
	defer rows.Close()

	var out []SeatType
	for rows.Next() {
		var st SeatType
		if err := rows.Scan(&st.ConferenceID, &st.Name, &st.Description, &st.Quantity,
			&st.PriceCents, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("conference: seat types scan: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

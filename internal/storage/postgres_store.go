package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/motorambos/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) SaveRequest(r *models.HelpRequest) error {
	_, err := p.db.Exec(`INSERT INTO help_requests(id, help_type, driver_name, phone, details, address, lat, lon, provider_id, status, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		r.ID, string(r.HelpType), r.DriverName, r.Phone, r.Details, r.Address,
		r.Loc.Lat, r.Loc.Lon, nullable(r.ProviderID), r.Status, r.CreatedAt, r.UpdatedAt)
	return err
}

func (p *PostgresStore) UpdateStatus(id, providerID, status string) error {
	res, err := p.db.Exec(`UPDATE help_requests SET provider_id=COALESCE($1, provider_id), status=$2, updated_at=$3 WHERE id=$4`,
		nullable(providerID), status, time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) GetRequest(id string) (*models.HelpRequest, error) {
	row := p.db.QueryRow(`SELECT id, help_type, driver_name, phone, details, address, lat, lon, COALESCE(provider_id,''), status, created_at, updated_at
		FROM help_requests WHERE id=$1`, id)
	return scanRequest(row)
}

func (p *PostgresStore) ListRequests(status string, limit int) ([]*models.HelpRequest, error) {
	rows, err := p.db.Query(`SELECT id, help_type, driver_name, phone, details, address, lat, lon, COALESCE(provider_id,''), status, created_at, updated_at
		FROM help_requests WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.HelpRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SaveReview(rv *models.Review) error {
	_, err := p.db.Exec(`INSERT INTO reviews(request_id, rating, text, reviewer_phone, outcome, created_at)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT (request_id) DO UPDATE SET rating=EXCLUDED.rating, text=EXCLUDED.text, reviewer_phone=EXCLUDED.reviewer_phone, outcome=EXCLUDED.outcome`,
		rv.RequestID, rv.Rating, rv.Text, rv.ReviewerPhone, rv.Outcome, rv.CreatedAt)
	return err
}

func (p *PostgresStore) GetReview(requestID string) (*models.Review, error) {
	var rv models.Review
	err := p.db.QueryRow(`SELECT request_id, rating, text, reviewer_phone, outcome, created_at FROM reviews WHERE request_id=$1`, requestID).
		Scan(&rv.RequestID, &rv.Rating, &rv.Text, &rv.ReviewerPhone, &rv.Outcome, &rv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.HelpRequest, error) {
	var r models.HelpRequest
	var helpType string
	err := row.Scan(&r.ID, &helpType, &r.DriverName, &r.Phone, &r.Details, &r.Address,
		&r.Loc.Lat, &r.Loc.Lon, &r.ProviderID, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.HelpType = models.HelpType(helpType)
	return &r, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package store

import (
	"context"
	"strings"

	"github.com/rcliao/ekg-analyzer/internal/model"
)

// SearchParams holds parameters for searching patients.
type SearchParams struct {
	Query string
	Limit int
}

// SearchPatients finds patients whose first name, last name or username
// contains every word of the query, case-insensitively.
func (s *SQLiteStore) SearchPatients(ctx context.Context, p SearchParams) ([]model.Patient, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []interface{}
	for _, w := range strings.Fields(strings.ToLower(p.Query)) {
		where = append(where, "(lower(firstname) LIKE ? OR lower(lastname) LIKE ? OR username LIKE ?)")
		like := "%" + w + "%"
		args = append(args, like, like, like)
	}
	if len(where) == 0 {
		return s.ListPatients(ctx, ListParams{Limit: limit})
	}

	query := `SELECT id, firstname, lastname, username, birth_year, picture_path, created_at
	          FROM patients WHERE ` + strings.Join(where, " AND ") + `
	          ORDER BY lastname, firstname, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []model.Patient
	for rows.Next() {
		pat, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, pat)
	}
	return patients, rows.Err()
}

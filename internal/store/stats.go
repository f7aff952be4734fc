package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string         `json:"db_path"`
	DBSizeBytes   int64          `json:"db_size_bytes"`
	TotalPatients int            `json:"total_patients"`
	TotalTests    int            `json:"total_tests"`
	TotalAnalyses int            `json:"total_analyses"`
	Patients      []PatientStats `json:"patients"`
}

// PatientStats holds per-patient counts.
type PatientStats struct {
	Username string `json:"username"`
	Tests    int    `json:"tests"`
	Analyzed int    `json:"analyzed"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&st.TotalPatients)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tests`).Scan(&st.TotalTests)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&st.TotalAnalyses)

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.username, COUNT(DISTINCT t.id), COUNT(DISTINCT a.test_id)
		FROM patients p
		LEFT JOIN tests t ON t.patient_id = p.id
		LEFT JOIN analyses a ON a.test_id = t.id
		GROUP BY p.id ORDER BY p.username`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ps PatientStats
		rows.Scan(&ps.Username, &ps.Tests, &ps.Analyzed)
		st.Patients = append(st.Patients, ps)
	}

	return st, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/ekg-analyzer/internal/model"
)

// ExportAll returns all patients with their tests.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]model.Patient, error) {
	patients, err := s.ListPatients(ctx, ListParams{Limit: -1})
	if err != nil {
		return nil, err
	}
	for i := range patients {
		patients[i].Tests, err = s.testsOf(ctx, patients[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return patients, nil
}

// Import stores patients and tests from an export, keeping their IDs.
// Patients whose ID already exists are skipped and their new tests are
// added. A patient whose username belongs to a different ID aborts the
// whole import with ErrConflict.
func (s *SQLiteStore) Import(ctx context.Context, patients []model.Patient) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, p := range patients {
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.Username == "" {
			p.Username = model.Username(p.Firstname, p.Lastname)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO patients (id, firstname, lastname, username, birth_year, picture_path, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Firstname, p.Lastname, p.Username, p.BirthYear, nullable(p.PicturePath),
			p.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return imported, fmt.Errorf("import patient %s: %w", p.Username, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			imported++
		} else {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients WHERE id = ?`, p.ID).Scan(&exists)
			if err != nil {
				return 0, fmt.Errorf("import patient %s: %w", p.Username, err)
			}
			if exists == 0 {
				return 0, fmt.Errorf("import patient %s (%s): username belongs to another patient: %w", p.Username, p.ID, ErrConflict)
			}
		}

		for _, t := range p.Tests {
			if t.ID == "" {
				t.ID = s.newID()
			}
			if t.CreatedAt.IsZero() {
				t.CreatedAt = time.Now().UTC()
			}
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO tests (id, patient_id, date, result_path, comment, created_at)
				 SELECT ?, id, ?, ?, ?, ? FROM patients WHERE id = ?`,
				t.ID, t.Date, t.ResultPath, nullable(t.Comment), t.CreatedAt.UTC().Format(time.RFC3339Nano), p.ID)
			if err != nil {
				return imported, fmt.Errorf("import test %s: %w", t.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/ekg-analyzer/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy io.Reader
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS patients (
		id           TEXT PRIMARY KEY,
		firstname    TEXT NOT NULL,
		lastname     TEXT NOT NULL,
		username     TEXT NOT NULL UNIQUE,
		birth_year   INTEGER NOT NULL DEFAULT 0,
		picture_path TEXT,
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_patients_name ON patients(lastname, firstname);

	CREATE TABLE IF NOT EXISTS tests (
		id          TEXT PRIMARY KEY,
		patient_id  TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		date        TEXT NOT NULL,
		result_path TEXT NOT NULL,
		comment     TEXT,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tests_patient ON tests(patient_id, date);

	CREATE TABLE IF NOT EXISTS analyses (
		id           TEXT PRIMARY KEY,
		test_id      TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
		min_distance INTEGER NOT NULL,
		min_height   REAL NOT NULL,
		summary      TEXT NOT NULL,
		anomalies    TEXT NOT NULL,
		created_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_test ON analyses(test_id, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) AddPatient(ctx context.Context, p AddPatientParams) (*model.Patient, error) {
	first := strings.TrimSpace(p.Firstname)
	last := strings.TrimSpace(p.Lastname)
	if first == "" || last == "" {
		return nil, fmt.Errorf("firstname and lastname are required")
	}

	now := time.Now().UTC()
	pat := &model.Patient{
		ID:          s.newID(),
		Firstname:   first,
		Lastname:    last,
		BirthYear:   p.BirthYear,
		PicturePath: p.PicturePath,
		CreatedAt:   now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Same names get a numeric suffix: julian.huber, julian.huber2, ...
	base := model.Username(first, last)
	pat.Username = base
	for n := 2; ; n++ {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients WHERE username = ?`, pat.Username).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			break
		}
		pat.Username = base + strconv.Itoa(n)
	}

	var picture *string
	if p.PicturePath != "" {
		picture = &p.PicturePath
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO patients (id, firstname, lastname, username, birth_year, picture_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pat.ID, pat.Firstname, pat.Lastname, pat.Username, pat.BirthYear, picture, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return pat, nil
}

func (s *SQLiteStore) GetPatient(ctx context.Context, ref string) (*model.Patient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, username, birth_year, picture_path, created_at
		 FROM patients WHERE id = ? OR username = ? LIMIT 1`, ref, ref)
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("patient %q: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	p.Tests, err = s.testsOf(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) ListPatients(ctx context.Context, p ListParams) ([]model.Patient, error) {
	limit := p.Limit
	if limit == 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, firstname, lastname, username, birth_year, picture_path, created_at
		 FROM patients ORDER BY lastname, firstname, id LIMIT ?`, limit)
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

func (s *SQLiteStore) RmPatient(ctx context.Context, ref string) error {
	id, err := s.resolvePatientID(ctx, ref)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) AddTest(ctx context.Context, p AddTestParams) (*model.Test, error) {
	if strings.TrimSpace(p.ResultPath) == "" {
		return nil, fmt.Errorf("result path is required")
	}
	now := time.Now().UTC()

	date := p.Date
	if date == "" {
		date = now.Format(model.DateLayout)
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", date)
	}

	patientID, err := s.resolvePatientID(ctx, p.Patient)
	if err != nil {
		return nil, err
	}

	t := &model.Test{
		ID:         s.newID(),
		PatientID:  patientID,
		Date:       date,
		ResultPath: p.ResultPath,
		Comment:    p.Comment,
		CreatedAt:  now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tests (id, patient_id, date, result_path, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.PatientID, t.Date, t.ResultPath, nullable(t.Comment), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert test: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) GetTest(ctx context.Context, id string) (*model.Test, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, patient_id, date, result_path, comment, created_at FROM tests WHERE id = ?`, id)
	t, err := scanTest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("test %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) ListTests(ctx context.Context, patientRef string) ([]model.Test, error) {
	id, err := s.resolvePatientID(ctx, patientRef)
	if err != nil {
		return nil, err
	}
	return s.testsOf(ctx, id)
}

func (s *SQLiteStore) testsOf(ctx context.Context, patientID string) ([]model.Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, patient_id, date, result_path, comment, created_at
		 FROM tests WHERE patient_id = ? ORDER BY date, created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (s *SQLiteStore) SetComment(ctx context.Context, testID, comment string) (*model.Test, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tests SET comment = ? WHERE id = ?`, nullable(comment), testID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("test %q: %w", testID, ErrNotFound)
	}
	return s.GetTest(ctx, testID)
}

func (s *SQLiteStore) RmTest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tests WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("test %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, p SaveAnalysisParams) (*model.Analysis, error) {
	if _, err := s.GetTest(ctx, p.TestID); err != nil {
		return nil, err
	}

	anomalies := p.Anomalies
	if anomalies == nil {
		anomalies = []string{}
	}
	summaryJSON, err := json.Marshal(p.Summary)
	if err != nil {
		return nil, err
	}
	anomaliesJSON, err := json.Marshal(anomalies)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &model.Analysis{
		ID:        s.newID(),
		TestID:    p.TestID,
		Params:    p.Params,
		Summary:   p.Summary,
		Anomalies: anomalies,
		CreatedAt: now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, test_id, min_distance, min_height, summary, anomalies, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TestID, a.Params.MinDistance, a.Params.MinHeight,
		string(summaryJSON), string(anomaliesJSON), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) LatestAnalysis(ctx context.Context, testID string) (*model.Analysis, error) {
	var a model.Analysis
	var summaryJSON, anomaliesJSON, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, test_id, min_distance, min_height, summary, anomalies, created_at
		 FROM analyses WHERE test_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, testID).
		Scan(&a.ID, &a.TestID, &a.Params.MinDistance, &a.Params.MinHeight, &summaryJSON, &anomaliesJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis of test %q: %w", testID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(summaryJSON), &a.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if err := json.Unmarshal([]byte(anomaliesJSON), &a.Anomalies); err != nil {
		return nil, fmt.Errorf("decode anomalies: %w", err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &a, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// resolvePatientID finds the patient ID for an ID or username.
func (s *SQLiteStore) resolvePatientID(ctx context.Context, ref string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM patients WHERE id = ? OR username = ? LIMIT 1`, ref, ref).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("patient %q: %w", ref, ErrNotFound)
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row scanner) (model.Patient, error) {
	var p model.Patient
	var picture sql.NullString
	var createdAt string

	err := row.Scan(&p.ID, &p.Firstname, &p.Lastname, &p.Username, &p.BirthYear, &picture, &createdAt)
	if err != nil {
		return p, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if picture.Valid {
		p.PicturePath = picture.String
	}
	return p, nil
}

func scanTest(row scanner) (model.Test, error) {
	var t model.Test
	var comment sql.NullString
	var createdAt string

	err := row.Scan(&t.ID, &t.PatientID, &t.Date, &t.ResultPath, &comment, &createdAt)
	if err != nil {
		return t, err
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if comment.Valid {
		t.Comment = comment.String
	}
	return t, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

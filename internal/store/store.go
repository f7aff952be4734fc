// Package store provides patient, test and analysis storage backed by SQLite.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/model"
)

// ErrNotFound is wrapped by every lookup that finds nothing.
var ErrNotFound = errors.New("not found")

// ErrConflict is wrapped when a record clashes with a different existing one.
var ErrConflict = errors.New("conflict")

// AddPatientParams holds parameters for creating a patient.
type AddPatientParams struct {
	Firstname   string
	Lastname    string
	BirthYear   int
	PicturePath string
}

// ListParams holds parameters for listing patients.
type ListParams struct {
	Limit int
}

// AddTestParams holds parameters for registering an EKG test.
type AddTestParams struct {
	Patient    string // patient ID or username
	Date       string // YYYY-MM-DD, today if empty
	ResultPath string
	Comment    string
}

// SaveAnalysisParams holds a computed analysis to persist.
type SaveAnalysisParams struct {
	TestID    string
	Params    ekg.PeakParams
	Summary   ekg.HeartRateSummary
	Anomalies []string
}

// Store defines the storage interface.
type Store interface {
	// AddPatient creates a patient with a unique username.
	AddPatient(ctx context.Context, p AddPatientParams) (*model.Patient, error)

	// GetPatient finds a patient by ID or username, tests included.
	GetPatient(ctx context.Context, ref string) (*model.Patient, error)

	// ListPatients lists patients ordered by last name.
	ListPatients(ctx context.Context, p ListParams) ([]model.Patient, error)

	// SearchPatients finds patients by name or username.
	SearchPatients(ctx context.Context, p SearchParams) ([]model.Patient, error)

	// RmPatient deletes a patient with all tests and analyses.
	RmPatient(ctx context.Context, ref string) error

	// AddTest registers a recording file for a patient.
	AddTest(ctx context.Context, p AddTestParams) (*model.Test, error)

	// GetTest finds a test by ID.
	GetTest(ctx context.Context, id string) (*model.Test, error)

	// ListTests lists the tests of a patient, oldest first.
	ListTests(ctx context.Context, patientRef string) ([]model.Test, error)

	// SetComment replaces the clinician's comment on a test.
	SetComment(ctx context.Context, testID, comment string) (*model.Test, error)

	// RmTest deletes a test and its analyses.
	RmTest(ctx context.Context, id string) error

	// SaveAnalysis stores an analysis result for a test.
	SaveAnalysis(ctx context.Context, p SaveAnalysisParams) (*model.Analysis, error)

	// LatestAnalysis returns the newest saved analysis of a test.
	LatestAnalysis(ctx context.Context, testID string) (*model.Analysis, error)

	// Close closes the store.
	Close() error
}

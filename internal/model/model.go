// Package model defines the patient, EKG test and analysis records.
package model

import (
	"strings"
	"time"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
)

// Patient is a person with EKG tests.
type Patient struct {
	ID          string    `json:"id"`
	Firstname   string    `json:"firstname"`
	Lastname    string    `json:"lastname"`
	Username    string    `json:"username"`
	BirthYear   int       `json:"birth_year"`
	PicturePath string    `json:"picture_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Tests       []Test    `json:"tests,omitempty"`
}

// Name returns "Firstname Lastname".
func (p Patient) Name() string {
	return strings.TrimSpace(p.Firstname + " " + p.Lastname)
}

// Age is the age in whole years reached during now's calendar year.
func (p Patient) Age(now time.Time) int {
	if p.BirthYear <= 0 {
		return 0
	}
	return now.Year() - p.BirthYear
}

// MaxHeartRate is the age-predicted maximum heart rate, 220 - age.
func (p Patient) MaxHeartRate(now time.Time) int {
	return 220 - p.Age(now)
}

// Profile is a patient together with the values derived from the birth year.
type Profile struct {
	Patient
	Age          int `json:"age"`
	MaxHeartRate int `json:"max_heart_rate"`
}

// NewProfile derives age and maximum heart rate as of now.
func NewProfile(p Patient, now time.Time) Profile {
	return Profile{Patient: p, Age: p.Age(now), MaxHeartRate: p.MaxHeartRate(now)}
}

// Username derives the login name "firstname.lastname", lowercased.
func Username(firstname, lastname string) string {
	f := strings.ToLower(strings.Join(strings.Fields(firstname), ""))
	l := strings.ToLower(strings.Join(strings.Fields(lastname), ""))
	return f + "." + l
}

// Test is one EKG recording taken from a patient.
type Test struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Date       string    `json:"date"`
	ResultPath string    `json:"result_path"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Analysis is a saved analysis of a test.
type Analysis struct {
	ID        string               `json:"id"`
	TestID    string               `json:"test_id"`
	Params    ekg.PeakParams       `json:"params"`
	Summary   ekg.HeartRateSummary `json:"summary"`
	Anomalies []string             `json:"anomalies"`
	CreatedAt time.Time            `json:"created_at"`
}

// DateLayout is the layout of Test.Date.
const DateLayout = "2006-01-02"

// Package loader reads EKG recordings from tab-separated text files.
//
// Each line holds two columns, amplitude in mV and elapsed time in ms,
// with no header row:
//
//	0.123	2
//	0.131	4
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
)

// ErrEmpty is returned for input without any samples.
var ErrEmpty = errors.New("recording has no samples")

// ParseError points at the offending line of the input.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Load opens and parses the recording at path.
func Load(path string) (*ekg.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	rec, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Parse reads a recording from r. Blank lines are skipped; anything else
// that is not exactly two numbers is rejected.
func Parse(r io.Reader) (*ekg.Recording, error) {
	var amp, ts []float64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		cols := strings.Split(text, "\t")
		if len(cols) != 2 {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("expected 2 tab-separated columns, got %d", len(cols))}
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(cols[0]), 64)
		if err != nil {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("amplitude %q is not a number", cols[0])}
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(cols[1]), 64)
		if err != nil {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("time %q is not a number", cols[1])}
		}
		if len(ts) > 0 && t < ts[len(ts)-1] {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("time %g is before previous sample %g", t, ts[len(ts)-1])}
		}
		amp = append(amp, a)
		ts = append(ts, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	if len(amp) == 0 {
		return nil, ErrEmpty
	}
	return ekg.NewRecording(amp, ts)
}

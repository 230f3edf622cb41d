// Package corpus streams text records for vocabulary builds, one record per
// non-empty line.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// maxLineBytes bounds a single record. Longer lines fail the scan.
const maxLineBytes = 1 << 20

type input struct {
	name string
	open func() (io.ReadCloser, error)
}

// Source yields the records of its inputs in order. The first I/O error
// stops iteration and is kept for Err.
type Source struct {
	inputs  []input
	err     error
	records int
}

// Files reads the given paths. A path of "-" reads standard input.
func Files(paths ...string) *Source {
	s := &Source{}
	for _, p := range paths {
		if p == "-" {
			s.inputs = append(s.inputs, input{name: "<stdin>", open: func() (io.ReadCloser, error) {
				return io.NopCloser(os.Stdin), nil
			}})
			continue
		}
		s.inputs = append(s.inputs, input{name: p, open: func() (io.ReadCloser, error) {
			return os.Open(p)
		}})
	}
	return s
}

// FromReader reads records from r, which is not closed.
func FromReader(name string, r io.Reader) *Source {
	return &Source{inputs: []input{{name: name, open: func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}}}}
}

// Lines returns the record sequence. Lines are trimmed and blank lines are
// skipped. Ranging over it a second time re-opens file inputs.
func (s *Source) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		s.err = nil
		s.records = 0
		for _, in := range s.inputs {
			ok, err := s.scan(in, yield)
			if err != nil {
				s.err = err
				return
			}
			if !ok {
				return
			}
		}
	}
}

func (s *Source) scan(in input, yield func(string) bool) (bool, error) {
	rc, err := in.open()
	if err != nil {
		return false, err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.records++
		if !yield(line) {
			return false, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("read %s: %w", in.name, err)
	}
	return true, nil
}

// Err reports the error that ended the last iteration, if any.
func (s *Source) Err() error { return s.err }

// Records is how many records the last iteration yielded.
func (s *Source) Records() int { return s.records }

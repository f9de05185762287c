package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Static serves events from an in-memory corpus, typically loaded from YAML:
//
//	events:
//	  - id: 0
//	    year: 1969
//	    month: 7
//	    day: 20
//	    description: Apollo 11 lands on the Moon
type Static struct {
	byID   map[int]Event
	events []Event // sorted by date, then id
}

type staticFile struct {
	Events []Event `yaml:"events"`
}

// NewStatic indexes events. Duplicate ids and invalid dates are rejected.
func NewStatic(events []Event) (*Static, error) {
	s := &Static{byID: make(map[int]Event, len(events))}
	for _, e := range events {
		if err := validate(e); err != nil {
			return nil, err
		}
		if _, dup := s.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate event id %d", ErrMalformed, e.ID)
		}
		s.byID[e.ID] = e
		s.events = append(s.events, e)
	}
	sort.SliceStable(s.events, func(i, j int) bool {
		a, b := s.events[i], s.events[j]
		if a.Date() != b.Date() {
			return a.Date().Before(b.Date())
		}
		return a.ID < b.ID
	})
	return s, nil
}

// LoadStatic decodes a YAML corpus.
func LoadStatic(r io.Reader) (*Static, error) {
	var f staticFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return NewStatic(f.Events)
}

// LoadStaticFile reads a YAML corpus from disk.
func LoadStaticFile(path string) (*Static, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return LoadStatic(fh)
}

// Len is the number of events in the corpus.
func (s *Static) Len() int { return len(s.events) }

// Event implements Source.
func (s *Static) Event(_ context.Context, id int) (Event, error) {
	e, ok := s.byID[id]
	if !ok {
		return Event{}, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return e, nil
}

// Find implements Source.
func (s *Static) Find(_ context.Context, q Query) ([]Event, error) {
	out := []Event{}
	for _, e := range s.events {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

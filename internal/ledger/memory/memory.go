package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"expenses/internal/core"
)

// Store keeps records in process memory. Ids grow monotonically and are not
// reused after DeleteLast.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Record
	now    func() time.Time
}

func New() *Store {
	return &Store{nextID: 1, now: time.Now}
}

// NewFromFile seeds a store from a pipe-separated file of
// "Month Year|Category|Amount|Comment" lines. A missing file yields an empty
// store; blank lines and lines starting with # are skipped.
func NewFromFile(path string) (*Store, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	s := New()
	for i, line := range lines {
		e, err := parseSeedLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", path, i+1, err)
		}
		if _, err := s.Insert(context.Background(), e); err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", path, i+1, err)
		}
	}
	return s, nil
}

// Insert validates and stores the entry.
func (s *Store) Insert(_ context.Context, e core.Entry) (core.Record, error) {
	if err := e.Validate(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := core.NewRecord(s.nextID, e, s.now().UTC())
	s.nextID++
	s.items = append(s.items, rec)
	return rec, nil
}

// DeleteLast removes the record with the highest id.
func (s *Store) DeleteLast(_ context.Context) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return core.Record{}, core.ErrNotFound
	}
	last := 0
	for i, r := range s.items {
		if r.ID > s.items[last].ID {
			last = i
		}
	}
	rec := s.items[last]
	s.items = append(s.items[:last], s.items[last+1:]...)
	return rec, nil
}

// FetchAll returns a copy of every record, newest first.
func (s *Store) FetchAll(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.NewestFirst(s.items), nil
}

func parseSeedLine(line string) (core.Entry, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 3 || len(parts) > 4 {
		return core.Entry{}, fmt.Errorf("expected 3 or 4 fields, got %d", len(parts))
	}
	month, err := core.ParseMonth(parts[0])
	if err != nil {
		return core.Entry{}, err
	}
	cat, err := core.ParseCategory(parts[1])
	if err != nil {
		return core.Entry{}, err
	}
	amount, err := core.ParseAmount(parts[2])
	if err != nil {
		return core.Entry{}, err
	}
	e := core.Entry{Month: month, Category: cat, Amount: amount}
	if len(parts) == 4 {
		e.Comment = strings.TrimSpace(parts[3])
	}
	return e, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return out, nil
}

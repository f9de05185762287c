// Package cache puts a SQLite read-through cache in front of a
// history.Source. Events never change once published, so fetched events are
// kept forever; result lists of Find are refreshed after a TTL.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/historyguesser/internal/history"
)

// Source is a caching history.Source.
type Source struct {
	db       *sql.DB
	upstream history.Source
	ttl      time.Duration // <= 0 keeps lookups forever
	now      func() time.Time
}

// Open opens (or creates) the cache database at path and migrates it.
func Open(path string, upstream history.Source, ttl time.Duration) (*Source, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache %s: %w", path, err)
	}
	return &Source{db: db, upstream: upstream, ttl: ttl, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Source) Close() error { return s.db.Close() }

// Event implements history.Source.
func (s *Source) Event(ctx context.Context, id int) (history.Event, error) {
	var e history.Event
	err := s.db.QueryRowContext(ctx,
		`SELECT id, year, month, day, description FROM events WHERE id=?`, id,
	).Scan(&e.ID, &e.Year, &e.Month, &e.Day, &e.Description)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Warn().Err(err).Int("id", id).Msg("cache read event")
	}

	e, err = s.upstream.Event(ctx, id)
	if err != nil {
		return history.Event{}, err
	}
	if err := s.storeEvents(ctx, nil, e); err != nil {
		log.Warn().Err(err).Int("id", id).Msg("cache write event")
	}
	return e, nil
}

// Find implements history.Source.
func (s *Source) Find(ctx context.Context, q history.Query) ([]history.Event, error) {
	key := q.Key()
	if events, ok := s.lookup(ctx, key); ok {
		return events, nil
	}

	events, err := s.upstream.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.storeLookup(ctx, key, events); err != nil {
		log.Warn().Err(err).Str("query", key).Msg("cache write lookup")
	}
	return events, nil
}

// lookup returns the cached result list for key if present and fresh.
func (s *Source) lookup(ctx context.Context, key string) ([]history.Event, bool) {
	var idsJSON, fetched string
	err := s.db.QueryRowContext(ctx,
		`SELECT event_ids, fetched_at FROM lookups WHERE query=?`, key,
	).Scan(&idsJSON, &fetched)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Str("query", key).Msg("cache read lookup")
		}
		return nil, false
	}
	if s.ttl > 0 {
		at, err := time.Parse(time.RFC3339, fetched)
		if err != nil || s.now().Sub(at) > s.ttl {
			return nil, false
		}
	}

	var ids []int
	if err := json.Unmarshal([]byte(idsJSON), &ids); err != nil {
		return nil, false
	}
	events, err := s.eventsByID(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Str("query", key).Msg("cache read lookup events")
		return nil, false
	}
	return events, true
}

// eventsByID loads events in the order of ids. Any missing id is an error.
func (s *Source) eventsByID(ctx context.Context, ids []int) ([]history.Event, error) {
	out := make([]history.Event, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, year, month, day, description FROM events WHERE id IN (?`+strings.Repeat(",?", len(ids)-1)+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int]history.Event, len(ids))
	for rows.Next() {
		var e history.Event
		if err := rows.Scan(&e.ID, &e.Year, &e.Month, &e.Day, &e.Description); err != nil {
			return nil, err
		}
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("event %d missing from cache", id)
		}
		out = append(out, e)
	}
	return out, nil
}

// storeLookup records a result list and its events in one transaction.
func (s *Source) storeLookup(ctx context.Context, key string, events []history.Event) error {
	ids := make([]int, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.storeEvents(ctx, tx, events...); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO lookups (query, event_ids, fetched_at) VALUES (?, ?, ?)
        ON CONFLICT(query) DO UPDATE SET event_ids=excluded.event_ids, fetched_at=excluded.fetched_at`,
		key, string(idsJSON), s.stamp(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// storeEvents upserts events, inside tx when given.
func (s *Source) storeEvents(ctx context.Context, tx *sql.Tx, events ...history.Event) error {
	const q = `
        INSERT INTO events (id, year, month, day, description, fetched_at) VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET year=excluded.year, month=excluded.month, day=excluded.day,
            description=excluded.description, fetched_at=excluded.fetched_at`
	stamp := s.stamp()
	for _, e := range events {
		var err error
		if tx != nil {
			_, err = tx.ExecContext(ctx, q, e.ID, e.Year, e.Month, e.Day, e.Description, stamp)
		} else {
			_, err = s.db.ExecContext(ctx, q, e.ID, e.Year, e.Month, e.Day, e.Description, stamp)
		}
		if err != nil {
			return fmt.Errorf("store event %d: %w", e.ID, err)
		}
	}
	return nil
}

func (s *Source) stamp() string { return s.now().UTC().Format(time.RFC3339) }

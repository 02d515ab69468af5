package watchlist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*Movie, error) {
	var (
		m                                  Movie
		rating, tmdbID, year, runtime      sql.NullInt64
		tmdbRating                         sql.NullFloat64
		poster, backdrop, overview, genres sql.NullString
		addedAt, watchedAt, enrichedAt     sql.NullString
	)

	err := row.Scan(&m.ID, &m.UserID, &m.Title, &m.Platform, &m.Type, &m.Status, &rating, &addedAt, &watchedAt,
		&poster, &backdrop, &overview, &tmdbID, &tmdbRating, &year, &genres, &runtime, &enrichedAt)
	if err != nil {
		return nil, err
	}

	m.Rating = intPtr(rating)
	m.TmdbID = intPtr(tmdbID)
	m.ReleaseYear = intPtr(year)
	m.Runtime = intPtr(runtime)
	if tmdbRating.Valid {
		m.TmdbRating = &tmdbRating.Float64
	}
	m.PosterPath = poster.String
	m.BackdropPath = backdrop.String
	m.Overview = overview.String

	m.Genres = []string{}
	if genres.Valid && genres.String != "" {
		if err := json.Unmarshal([]byte(genres.String), &m.Genres); err != nil {
			return nil, fmt.Errorf("invalid genres for %s: %w", m.ID, err)
		}
	}

	if addedAt.Valid {
		t, err := parseTime(addedAt.String)
		if err != nil {
			return nil, err
		}
		m.AddedAt = t
	}
	if m.WatchedAt, err = parseNullTime(watchedAt); err != nil {
		return nil, err
	}
	if m.EnrichedAt, err = parseNullTime(enrichedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullPositive(v int) sql.NullInt64 {
	return nullInt(positive(v))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func positive(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package watchlist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound        = errors.New("title not found")
	ErrInvalidMovie    = errors.New("invalid title data")
	ErrDuplicateTMDBID = errors.New("title with this TMDB ID is already on the watchlist")
	ErrAlreadySeeded   = errors.New("watchlist already has titles, reset it before seeding")
	ErrNothingToPick   = errors.New("no titles match the filters")
)

// Event types published on the user's live channel.
const (
	EventMovieAdded    = "movie:added"
	EventMovieUpdated  = "movie:updated"
	EventMovieDeleted  = "movie:deleted"
	EventMovieEnriched = "movie:enriched"
	EventSeeded        = "watchlist:seeded"
	EventReset         = "watchlist:reset"
)

// Broadcaster delivers events to a single user's live connections.
type Broadcaster interface {
	Broadcast(userID, msgType string, payload any) error
}

const movieColumns = `id, user_id, title, platform, type, status, rating, added_at, watched_at,
	poster_path, backdrop_path, overview, tmdb_id, tmdb_rating, release_year, genres, runtime, enriched_at`

// Service provides watchlist operations. Every call is scoped to one user.
type Service struct {
	db     *sql.DB
	hub    Broadcaster
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new watchlist service. hub may be nil.
func NewService(db *sql.DB, hub Broadcaster, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		hub:    hub,
		logger: logger.With().Str("component", "watchlist").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get retrieves a record by ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Movie, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE user_id = ? AND id = ?`, userID, id)
	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get title: %w", err)
	}
	return movie, nil
}

// GetByTMDBID retrieves a record by its TMDB ID.
func (s *Service) GetByTMDBID(ctx context.Context, userID string, tmdbID int) (*Movie, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE user_id = ? AND tmdb_id = ? LIMIT 1`, userID, tmdbID)
	movie, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get title: %w", err)
	}
	return movie, nil
}

// List returns the user's records, newest first.
func (s *Service) List(ctx context.Context, userID string, filters Filters) ([]*Movie, error) {
	where, args := filterClause(userID, filters)
	return s.query(ctx, `SELECT `+movieColumns+` FROM movies WHERE `+where+` ORDER BY added_at DESC, id`, args...)
}

// ListUnenriched returns records that have no TMDB data yet, oldest first.
func (s *Service) ListUnenriched(ctx context.Context, userID string) ([]*Movie, error) {
	return s.query(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE user_id = ? AND enriched_at IS NULL ORDER BY added_at, id`, userID)
}

// UsersWithUnenriched lists the users that still have records without TMDB data.
func (s *Service) UsersWithUnenriched(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM movies WHERE enriched_at IS NULL ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

// Random picks one record at random. Status defaults to watchlist, as the
// picker only suggests titles not yet seen.
func (s *Service) Random(ctx context.Context, userID string, filters Filters) (*Movie, error) {
	if filters.Status == "" {
		filters.Status = string(StatusWatchlist)
	}
	movies, err := s.List(ctx, userID, filters)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, ErrNothingToPick
	}
	return movies[rand.IntN(len(movies))], nil
}

// Create adds a record to the user's watchlist.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*Movie, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	if e := input.Enrichment; e != nil && e.TmdbID > 0 {
		_, err := s.GetByTMDBID(ctx, userID, e.TmdbID)
		if err == nil {
			return nil, ErrDuplicateTMDBID
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	movie := s.newMovie(userID, input)
	if err := s.insert(ctx, s.db, movie); err != nil {
		return nil, err
	}

	s.logger.Info().Str("userId", userID).Str("id", movie.ID).Str("title", movie.Title).Msg("Title added")
	s.broadcast(userID, EventMovieAdded, movie)
	return movie, nil
}

// Update applies a partial update. Moving to watched stamps watched_at when
// it is not already set.
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*Movie, error) {
	movie, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidMovie)
		}
		movie.Title = title
	}
	if input.Platform != nil {
		if !input.Platform.Valid() {
			return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidMovie, *input.Platform)
		}
		movie.Platform = *input.Platform
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMovie, *input.Type)
		}
		movie.Type = *input.Type
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidMovie, *input.Status)
		}
		movie.Status = *input.Status
	}
	if input.ClearRating {
		movie.Rating = nil
	} else if input.Rating != nil {
		if err := validateRating(input.Rating); err != nil {
			return nil, err
		}
		movie.Rating = input.Rating
	}
	if input.WatchedAt != nil {
		t := input.WatchedAt.UTC()
		movie.WatchedAt = &t
	}
	if movie.Status == StatusWatched && movie.WatchedAt == nil {
		t := s.now()
		movie.WatchedAt = &t
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE movies SET title = ?, platform = ?, type = ?, status = ?, rating = ?, watched_at = ?
		WHERE user_id = ? AND id = ?`,
		movie.Title, movie.Platform, movie.Type, movie.Status, nullInt(movie.Rating), nullTime(movie.WatchedAt),
		userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update title: %w", err)
	}

	s.logger.Info().Str("userId", userID).Str("id", id).Msg("Title updated")
	s.broadcast(userID, EventMovieUpdated, movie)
	return movie, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.logger.Info().Str("userId", userID).Str("id", id).Msg("Title deleted")
	s.broadcast(userID, EventMovieDeleted, map[string]string{"id": id})
	return nil
}

// DeleteAll removes every record of the user and returns how many were removed.
func (s *Service) DeleteAll(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset watchlist: %w", err)
	}
	n, _ := res.RowsAffected()

	s.logger.Info().Str("userId", userID).Int64("deleted", n).Msg("Watchlist reset")
	s.broadcast(userID, EventReset, map[string]int64{"deleted": n})
	return int(n), nil
}

// ApplyEnrichment stores TMDB data on a record and stamps enriched_at.
func (s *Service) ApplyEnrichment(ctx context.Context, userID, id string, e Enrichment) (*Movie, error) {
	genres, err := json.Marshal(nonNil(e.Genres))
	if err != nil {
		return nil, fmt.Errorf("failed to encode genres: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE movies SET tmdb_id = ?, poster_path = ?, backdrop_path = ?, overview = ?, tmdb_rating = ?,
			release_year = ?, genres = ?, runtime = ?, enriched_at = ?
		WHERE user_id = ? AND id = ?`,
		e.TmdbID, nullString(e.PosterPath), nullString(e.BackdropPath), nullString(e.Overview), e.TmdbRating,
		nullPositive(e.ReleaseYear), string(genres), nullPositive(e.Runtime), formatTime(s.now()),
		userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to apply enrichment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	movie, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.broadcast(userID, EventMovieEnriched, movie)
	return movie, nil
}

// Stats summarizes the user's watchlist. AverageRating is over rated titles
// and nil when none are rated.
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	stats := &Stats{
		ByPlatform: map[Platform]int{PlatformNetflix: 0, PlatformDisney: 0, PlatformHBO: 0},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, platform, COUNT(*) FROM movies WHERE user_id = ? GROUP BY status, platform`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   Status
			platform Platform
			count    int
		)
		if err := rows.Scan(&status, &platform, &count); err != nil {
			return nil, fmt.Errorf("failed to scan counts: %w", err)
		}
		stats.Total += count
		stats.ByPlatform[platform] += count
		switch status {
		case StatusWatched:
			stats.Watched += count
		case StatusWatchlist:
			stats.Watchlist += count
		case StatusAbandoned:
			stats.Abandoned += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count titles: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT AVG(rating) FROM movies WHERE user_id = ? AND rating IS NOT NULL`, userID).Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	if avg.Valid {
		stats.AverageRating = &avg.Float64
	}

	return stats, nil
}

// Seed inserts entries in one transaction. It refuses when the user already
// has records.
func (s *Service) Seed(ctx context.Context, userID string, groups []SeedGroup) (int, error) {
	var existing int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movies WHERE user_id = ?`, userID).Scan(&existing); err != nil {
		return 0, fmt.Errorf("failed to check watchlist: %w", err)
	}
	if existing > 0 {
		return 0, ErrAlreadySeeded
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, group := range groups {
		for _, item := range group.List {
			input := CreateInput{Title: item.Title, Platform: group.Platform, Type: item.Type, Status: StatusWatchlist}
			if err := validateCreate(&input); err != nil {
				return 0, fmt.Errorf("seed entry %q: %w", item.Title, err)
			}
			if err := s.insert(ctx, tx, s.newMovie(userID, input)); err != nil {
				return 0, err
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}

	s.logger.Info().Str("userId", userID).Int("count", count).Msg("Watchlist seeded")
	s.broadcast(userID, EventSeeded, map[string]int{"imported": count})
	return count, nil
}

func (s *Service) newMovie(userID string, input CreateInput) *Movie {
	now := s.now()
	movie := &Movie{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    input.Title,
		Platform: input.Platform,
		Type:     input.Type,
		Status:   input.Status,
		Rating:   input.Rating,
		AddedAt:  now,
		Genres:   []string{},
	}
	if movie.Status == StatusWatched {
		movie.WatchedAt = &now
	}
	if e := input.Enrichment; e != nil {
		movie.TmdbID = &e.TmdbID
		movie.PosterPath = e.PosterPath
		movie.BackdropPath = e.BackdropPath
		movie.Overview = e.Overview
		movie.TmdbRating = &e.TmdbRating
		movie.ReleaseYear = positive(e.ReleaseYear)
		movie.Genres = nonNil(e.Genres)
		movie.Runtime = positive(e.Runtime)
		movie.EnrichedAt = &now
	}
	return movie
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Service) insert(ctx context.Context, db execer, m *Movie) error {
	var genres sql.NullString
	if m.IsEnriched() {
		b, err := json.Marshal(m.Genres)
		if err != nil {
			return fmt.Errorf("failed to encode genres: %w", err)
		}
		genres = sql.NullString{String: string(b), Valid: true}
	}

	var tmdbRating sql.NullFloat64
	if m.TmdbRating != nil {
		tmdbRating = sql.NullFloat64{Float64: *m.TmdbRating, Valid: true}
	}

	_, err := db.ExecContext(ctx, `INSERT INTO movies (`+movieColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Title, m.Platform, m.Type, m.Status, nullInt(m.Rating),
		formatTime(m.AddedAt), nullTime(m.WatchedAt),
		nullString(m.PosterPath), nullString(m.BackdropPath), nullString(m.Overview),
		nullInt(m.TmdbID), tmdbRating, nullInt(m.ReleaseYear), genres, nullInt(m.Runtime), nullTime(m.EnrichedAt))
	if err != nil {
		return fmt.Errorf("failed to insert title: %w", err)
	}
	return nil
}

func (s *Service) query(ctx context.Context, query string, args ...any) ([]*Movie, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	defer rows.Close()

	movies := []*Movie{}
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	return movies, nil
}

func (s *Service) broadcast(userID, msgType string, payload any) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Broadcast(userID, msgType, payload); err != nil {
		s.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to publish watchlist event")
	}
}

func filterClause(userID string, f Filters) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	add := func(column, value string) {
		if value != "" && value != filterAll {
			clauses = append(clauses, column+" = ?")
			args = append(args, value)
		}
	}
	add("platform", f.Platform)
	add("type", f.Type)
	add("status", f.Status)

	if search := strings.TrimSpace(f.Search); search != "" {
		clauses = append(clauses, "title LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(search)+"%")
	}

	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func validateCreate(input *CreateInput) error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMovie)
	}
	if !input.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidMovie, input.Platform)
	}
	if !input.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMovie, input.Type)
	}
	if input.Status == "" {
		input.Status = StatusWatchlist
	}
	if !input.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidMovie, input.Status)
	}
	return validateRating(input.Rating)
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidMovie)
	}
	return nil
}

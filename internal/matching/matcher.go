package matching

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	// ConfidenceThreshold is the score a candidate must strictly exceed to be accepted.
	ConfidenceThreshold = 0.5

	titleWeight      = 0.7
	popularityWeight = 0.3

	// Vote averages are on a 0-10 scale.
	popularityScale = 10.0
)

// Catalog is the content catalog the matcher searches.
// Implementations own timeouts; the matcher never retries.
type Catalog interface {
	SearchMovies(ctx context.Context, query string) ([]Candidate, error)
	SearchSeries(ctx context.Context, query string) ([]Candidate, error)
}

// Matcher picks the most plausible catalog entry for a free-text title.
// It keeps no state between calls and is safe for concurrent use.
type Matcher struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewMatcher creates a matcher backed by the given catalog.
func NewMatcher(catalog Catalog, logger zerolog.Logger) *Matcher {
	return &Matcher{
		catalog: catalog,
		logger:  logger.With().Str("component", "matching").Logger(),
	}
}

// FindBestMatch searches the catalog with several phrasings of title and returns
// the best-scoring candidate when it clears ConfidenceThreshold.
//
// Only invalid input (empty title, unknown content type) and caller
// cancellation are returned as errors. Failed catalog searches are logged and
// contribute no candidates; a decision with Matched == false is a normal result.
func (m *Matcher) FindBestMatch(ctx context.Context, title string, contentType ContentType) (MatchDecision, error) {
	if !contentType.Valid() {
		return MatchDecision{}, ErrInvalidContentType
	}
	if strings.TrimSpace(title) == "" {
		return MatchDecision{}, ErrEmptyTitle
	}

	variants := QueryVariants(title)
	if len(variants) == 0 {
		return MatchDecision{}, ErrEmptyTitle
	}

	pool, failed := m.collect(ctx, variants, contentType)
	if err := ctx.Err(); err != nil {
		return MatchDecision{}, err
	}

	decision := MatchDecision{
		ContentType: contentType,
		Searched:    len(variants),
		Failed:      failed,
	}

	scored := ScoreCandidates(title, pool)
	if best, ok := selectBest(scored); ok {
		candidate := best.Candidate
		decision.Matched = true
		decision.Candidate = &candidate
		decision.Score = best.Score
	}

	event := m.logger.Debug().
		Str("title", title).
		Str("contentType", string(contentType)).
		Int("variants", len(variants)).
		Int("failed", failed).
		Int("candidates", len(pool)).
		Bool("matched", decision.Matched)
	if decision.Matched {
		event = event.
			Int("tmdbId", decision.Candidate.ID).
			Str("matchedTitle", decision.Candidate.DisplayTitle()).
			Float64("score", decision.Score)
	}
	event.Msg("Title match completed")

	return decision, nil
}

// collect runs one search per variant concurrently. Results keep variant order,
// then catalog order within a variant, so ties resolve the same way on every run.
func (m *Matcher) collect(ctx context.Context, variants []string, contentType ContentType) ([]Candidate, int) {
	results := make([][]Candidate, len(variants))
	errs := make([]error, len(variants))

	var wg sync.WaitGroup
	for i, query := range variants {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			results[i], errs[i] = m.search(ctx, query, contentType)
		}(i, query)
	}
	wg.Wait()

	var pool []Candidate
	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			m.logger.Warn().
				Err(err).
				Str("query", variants[i]).
				Str("contentType", string(contentType)).
				Msg("Catalog search failed, skipping variant")
			continue
		}
		pool = append(pool, results[i]...)
	}

	return pool, failed
}

func (m *Matcher) search(ctx context.Context, query string, contentType ContentType) ([]Candidate, error) {
	if contentType == ContentTypeSeries {
		return m.catalog.SearchSeries(ctx, query)
	}
	return m.catalog.SearchMovies(ctx, query)
}

// Score blends title similarity (70%) with the candidate's vote average (30%).
func Score(target string, c Candidate) float64 {
	titleMatch := Similarity(target, c.DisplayTitle())
	popularity := math.Max(0, math.Min(c.VoteAverage/popularityScale, 1))
	return titleWeight*titleMatch + popularityWeight*popularity
}

// ScoreCandidates scores every pooled candidate against target, preserving pool order.
func ScoreCandidates(target string, pool []Candidate) []ScoredCandidate {
	scored := make([]ScoredCandidate, len(pool))
	for i, c := range pool {
		scored[i] = ScoredCandidate{Candidate: c, Score: Score(target, c)}
	}
	return scored
}

// selectBest sorts scored by descending score (stable, so earlier entries win
// ties) and returns the top entry when it beats ConfidenceThreshold.
func selectBest(scored []ScoredCandidate) (ScoredCandidate, bool) {
	if len(scored) == 0 {
		return ScoredCandidate{}, false
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	best := scored[0]
	if best.Score <= ConfidenceThreshold {
		return ScoredCandidate{}, false
	}
	return best, true
}

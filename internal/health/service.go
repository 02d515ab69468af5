package health

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 5 * time.Second

// Probe checks one dependency. A nil error means healthy. Probes that can
// degrade without failing return a *Warning.
type Probe func(ctx context.Context) error

// Warning marks a probe result as degraded rather than failed.
type Warning struct {
	Message string
}

func (w *Warning) Error() string { return w.Message }

type registered struct {
	item  *HealthItem
	probe Probe
}

// Service tracks the health of the database and the catalog provider.
// All state is in-memory and resets on application restart.
type Service struct {
	items  map[string]*registered
	mu     sync.RWMutex
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		items:  make(map[string]*registered),
		now:    time.Now,
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// RegisterItem adds a probe under category/id.
func (s *Service) RegisterItem(category HealthCategory, id, name string, probe Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key(category, id)] = &registered{
		item:  &HealthItem{ID: id, Category: category, Name: name, Status: StatusOK},
		probe: probe,
	}

	s.logger.Debug().
		Str("category", string(category)).
		Str("id", id).
		Str("name", name).
		Msg("Registered health item")
}

// Check runs every probe concurrently and returns the updated items.
func (s *Service) Check(ctx context.Context) *HealthResponse {
	s.mu.RLock()
	entries := make([]*registered, 0, len(s.items))
	for _, r := range s.items {
		entries = append(entries, r)
	}
	s.mu.RUnlock()

	results := make([]error, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range entries {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, checkTimeout)
			defer cancel()
			results[i] = r.probe(probeCtx)
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range entries {
		s.setStatus(r.item, results[i])
	}
	return s.GetAll()
}

// setStatus records a probe result.
func (s *Service) setStatus(item *HealthItem, err error) {
	status, message := StatusOK, ""
	if err != nil {
		status, message = StatusError, err.Error()
		var w *Warning
		if errors.As(err, &w) {
			status = StatusWarning
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Status == status && item.Message == message {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message

	if status != StatusOK {
		now := s.now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	s.logger.Info().
		Str("category", string(item.Category)).
		Str("id", item.ID).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")
}

// GetAll returns the last known status of every item, ordered by category and id.
func (s *Service) GetAll() *HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := &HealthResponse{Status: StatusOK, Items: make([]HealthItem, 0, len(s.items))}
	for _, r := range s.items {
		resp.Items = append(resp.Items, *r.item)
		resp.Status = worst(resp.Status, r.item.Status)
	}

	order := map[HealthCategory]int{}
	for i, c := range AllCategories() {
		order[c] = i
	}
	sort.Slice(resp.Items, func(i, j int) bool {
		a, b := resp.Items[i], resp.Items[j]
		if a.Category != b.Category {
			return order[a.Category] < order[b.Category]
		}
		return a.ID < b.ID
	})
	return resp
}

// IsHealthy reports whether an item's last check succeeded.
func (s *Service) IsHealthy(category HealthCategory, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.items[key(category, id)]
	return ok && r.item.Status == StatusOK
}

// RegisterRoutes registers the health routes.
func (s *Service) RegisterRoutes(g *echo.Group) {
	g.GET("/health", s.GetHealth)
}

// GetHealth runs all probes.
// GET /api/v1/health
func (s *Service) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Check(c.Request().Context()))
}

func key(category HealthCategory, id string) string {
	return string(category) + "/" + id
}

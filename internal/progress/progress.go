// Package progress tracks long-running per-user activities, such as a bulk
// enrichment pass, and publishes their state over the user's live channel.
package progress

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cinecouple/cinecouple/internal/auth"
)

// ActivityType identifies the type of activity being tracked.
type ActivityType string

const (
	ActivityTypeEnrichment ActivityType = "enrichment"
)

// Status represents the current state of an activity.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Activity represents a trackable activity with progress.
type Activity struct {
	ID          string         `json:"id"`
	UserID      string         `json:"-"`
	Type        ActivityType   `json:"type"`
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle"`    // current phase
	Progress    int            `json:"progress"`    // 0-100
	Status      Status         `json:"status"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"` // nil while running
	Metadata    map[string]any `json:"metadata"`
}

// EventType identifies the type of progress event.
type EventType string

const (
	EventTypeStarted   EventType = "progress:started"
	EventTypeUpdate    EventType = "progress:update"
	EventTypeCompleted EventType = "progress:completed"
	EventTypeError     EventType = "progress:error"
	EventTypeCancelled EventType = "progress:cancelled"
)

// Broadcaster delivers events to one user's live connections.
type Broadcaster interface {
	Broadcast(userID, msgType string, payload any) error
}

// Finished activities stay visible this long.
const retention = 10 * time.Second

// Manager tracks and broadcasts progress for all activities.
type Manager struct {
	hub        Broadcaster
	activities map[string]*Activity
	mu         sync.RWMutex
	logger     zerolog.Logger
	retention  time.Duration
}

// NewManager creates a new progress manager. hub may be nil.
func NewManager(hub Broadcaster, logger zerolog.Logger) *Manager {
	return &Manager{
		hub:        hub,
		activities: make(map[string]*Activity),
		logger:     logger.With().Str("component", "progress").Logger(),
		retention:  retention,
	}
}

// Start begins tracking a new activity for userID.
func (m *Manager) Start(userID, id string, activityType ActivityType, title string) *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity := &Activity{
		ID:        id,
		UserID:    userID,
		Type:      activityType,
		Title:     title,
		Subtitle:  "Starting...",
		Status:    StatusInProgress,
		StartedAt: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
	m.activities[id] = activity
	m.broadcast(EventTypeStarted, activity)

	m.logger.Debug().Str("id", id).Str("type", string(activityType)).Str("userId", userID).Msg("Activity started")
	return &Tracker{manager: m, id: id}
}

func (m *Manager) update(id string, fn func(*Activity)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity, exists := m.activities[id]
	if !exists {
		return
	}
	fn(activity)
	m.broadcast(EventTypeUpdate, activity)
}

func (m *Manager) finish(id string, status Status, event EventType, subtitle string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity, exists := m.activities[id]
	if !exists || activity.CompletedAt != nil {
		return
	}

	now := time.Now().UTC()
	activity.Status = status
	activity.Subtitle = subtitle
	activity.CompletedAt = &now
	if status == StatusCompleted {
		activity.Progress = 100
	}
	if status == StatusFailed {
		activity.Metadata["error"] = subtitle
	}
	m.broadcast(event, activity)

	time.AfterFunc(m.retention, func() {
		m.mu.Lock()
		delete(m.activities, id)
		m.mu.Unlock()
	})

	m.logger.Debug().Str("id", id).Str("status", string(status)).Msg("Activity finished")
}

// Get returns a copy of the activity, or nil.
func (m *Manager) Get(id string) *Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.activities[id]; ok {
		return a.snapshot()
	}
	return nil
}

// List returns copies of userID's activities, oldest first.
func (m *Manager) List(userID string) []*Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Activity, 0)
	for _, a := range m.activities {
		if a.UserID == userID {
			result = append(result, a.snapshot())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result
}

// broadcast must be called with mu held.
func (m *Manager) broadcast(eventType EventType, activity *Activity) {
	if m.hub == nil {
		return
	}
	if err := m.hub.Broadcast(activity.UserID, string(eventType), activity.snapshot()); err != nil {
		m.logger.Warn().Err(err).Str("id", activity.ID).Msg("Failed to publish progress")
	}
}

func (a *Activity) snapshot() *Activity {
	cp := *a
	cp.Metadata = make(map[string]any, len(a.Metadata))
	for k, v := range a.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

// Tracker updates a single activity.
type Tracker struct {
	manager *Manager
	id      string
}

// ID returns the activity's ID.
func (t *Tracker) ID() string {
	return t.id
}

// Update sets the subtitle and progress, clamped to 0-100.
func (t *Tracker) Update(subtitle string, progress int) {
	progress = max(0, min(progress, 100))
	t.manager.update(t.id, func(a *Activity) {
		a.Subtitle = subtitle
		a.Progress = progress
	})
}

// Step reports done of total items.
func (t *Tracker) Step(subtitle string, done, total int) {
	if total <= 0 {
		t.Update(subtitle, 100)
		return
	}
	t.Update(subtitle, done*100/total)
}

// SetMetadata adds metadata to the activity.
func (t *Tracker) SetMetadata(key string, value any) {
	t.manager.update(t.id, func(a *Activity) {
		a.Metadata[key] = value
	})
}

// Complete marks the activity as completed.
func (t *Tracker) Complete(subtitle string) {
	t.manager.finish(t.id, StatusCompleted, EventTypeCompleted, subtitle)
}

// Fail marks the activity as failed.
func (t *Tracker) Fail(errorMsg string) {
	t.manager.finish(t.id, StatusFailed, EventTypeError, errorMsg)
}

// Cancel marks the activity as cancelled.
func (t *Tracker) Cancel() {
	t.manager.finish(t.id, StatusCancelled, EventTypeCancelled, "Cancelled")
}

// RegisterRoutes registers the activity listing route.
func (m *Manager) RegisterRoutes(g *echo.Group) {
	g.GET("/activities", m.ListActivities)
}

// ListActivities returns the caller's running and recently finished activities.
// GET /api/v1/activities
func (m *Manager) ListActivities(c echo.Context) error {
	return c.JSON(http.StatusOK, m.List(auth.UserID(c)))
}

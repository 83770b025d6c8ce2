// Package repository is the single source of truth for profile, habits,
// ticks, moods and settings. Each collection is read from the store once,
// then served from memory; every write persists the whole collection before
// the in-memory copy is replaced.
package repository

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/events"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/storage"
	"github.com/julianstephens/strive/internal/utils"
)

var (
	// ErrCorruptState is returned when a persisted collection cannot be decoded.
	ErrCorruptState = errors.New("stored data is corrupt")
	// ErrInvalidBundle is returned when import text is not an export bundle.
	ErrInvalidBundle = errors.New("invalid export bundle")
	// ErrDuplicateID is returned when adding a record whose id already exists.
	ErrDuplicateID = errors.New("id already exists")
	// ErrMissingID is returned when adding a record without an id.
	ErrMissingID = errors.New("id is required")
)

const moodRetention = constants.MoodRetentionDays * 24 * time.Hour

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces time.Now, which decides "today" and mood retention.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLocation sets the timezone that calendar dates are computed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Repository) { r.loc = loc }
}

// WithWidgetRefresher sets the collaborator refreshed after each tick change.
func WithWidgetRefresher(refresher events.Refresher) Option {
	return func(r *Repository) { r.listeners.SetRefresher(refresher) }
}

type Repository struct {
	store     storage.Store
	now       func() time.Time
	loc       *time.Location
	listeners *events.Registry

	profile  cached[*models.UserProfile]
	habits   cached[[]models.Habit]
	ticks    cached[[]models.HabitTick]
	moods    cached[[]models.MoodEntry]
	settings cached[models.AppSettings]
}

func New(store storage.Store, opts ...Option) *Repository {
	r := &Repository{
		store:     store,
		now:       time.Now,
		loc:       time.Local,
		listeners: events.NewRegistry(nil),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.profile = cached[*models.UserProfile]{
		key:    constants.KeyUserProfile,
		absent: func() (*models.UserProfile, bool) { return nil, false },
	}
	r.habits = cached[[]models.Habit]{
		key:    constants.KeyHabits,
		absent: func() ([]models.Habit, bool) { return BuiltInHabits(r.now().UnixMilli()), true },
	}
	r.ticks = cached[[]models.HabitTick]{
		key:    constants.KeyTicks,
		absent: func() ([]models.HabitTick, bool) { return []models.HabitTick{}, false },
	}
	r.moods = cached[[]models.MoodEntry]{
		key:    constants.KeyMoods,
		absent: func() ([]models.MoodEntry, bool) { return []models.MoodEntry{}, false },
	}
	r.settings = cached[models.AppSettings]{
		key:    constants.KeySettings,
		absent: func() (models.AppSettings, bool) { return models.DefaultSettings(), false },
	}
	return r
}

// Today returns the current calendar date in the repository's timezone.
func (r *Repository) Today() string {
	return utils.DateString(r.now(), r.loc)
}

// Now returns the repository clock's current time.
func (r *Repository) Now() time.Time {
	return r.now()
}

// Location returns the timezone calendar dates are computed in.
func (r *Repository) Location() *time.Location {
	return r.loc
}

// Store returns the backing store.
func (r *Repository) Store() storage.Store {
	return r.store
}

func cloneHabits(in []models.Habit) []models.Habit {
	out := make([]models.Habit, len(in))
	for i, h := range in {
		out[i] = h.Clone()
	}
	return out
}

func cloneMoods(in []models.MoodEntry) []models.MoodEntry {
	out := make([]models.MoodEntry, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

// --- Profile

// GetUserProfile returns nil when no profile has been saved.
func (r *Repository) GetUserProfile() (*models.UserProfile, error) {
	r.profile.mu.Lock()
	defer r.profile.mu.Unlock()

	p, err := r.profile.load(r.store)
	if err != nil || p == nil {
		return nil, err
	}
	c := *p
	return &c, nil
}

// SaveUserProfile replaces the profile. No validation is applied.
func (r *Repository) SaveUserProfile(p models.UserProfile) error {
	r.profile.mu.Lock()
	defer r.profile.mu.Unlock()
	return r.profile.put(r.store, &p)
}

// --- Habits

// GetAllHabits returns every habit, newest first. A store without habits is
// seeded with the built-in set, and the seed is persisted.
func (r *Repository) GetAllHabits() ([]models.Habit, error) {
	r.habits.mu.Lock()
	defer r.habits.mu.Unlock()

	hs, err := r.habits.load(r.store)
	if err != nil {
		return nil, err
	}
	return cloneHabits(hs), nil
}

// GetHabit returns the habit with id, or nil.
func (r *Repository) GetHabit(id string) (*models.Habit, error) {
	r.habits.mu.Lock()
	defer r.habits.mu.Unlock()

	hs, err := r.habits.load(r.store)
	if err != nil {
		return nil, err
	}
	for _, h := range hs {
		if h.ID == id {
			c := h.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

// AddHabit prepends h after normalizing LITERS to ML.
func (r *Repository) AddHabit(h models.Habit) error {
	if h.ID == "" {
		return ErrMissingID
	}

	r.habits.mu.Lock()
	defer r.habits.mu.Unlock()

	hs, err := r.habits.load(r.store)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(hs, func(e models.Habit) bool { return e.ID == h.ID }) {
		return fmt.Errorf("habit %s: %w", h.ID, ErrDuplicateID)
	}

	next := make([]models.Habit, 0, len(hs)+1)
	next = append(next, models.NormalizeUnit(h.Clone()))
	next = append(next, hs...)
	return r.habits.put(r.store, next)
}

// UpdateHabit replaces the habit with the same id. An unknown id is a silent no-op.
func (r *Repository) UpdateHabit(h models.Habit) error {
	r.habits.mu.Lock()
	defer r.habits.mu.Unlock()

	hs, err := r.habits.load(r.store)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(hs, func(e models.Habit) bool { return e.ID == h.ID })
	if idx < 0 {
		return nil
	}

	next := slices.Clone(hs)
	next[idx] = models.NormalizeUnit(h.Clone())
	return r.habits.put(r.store, next)
}

// DeleteHabit removes the habit and every tick recorded for it. The two
// collections are updated one after the other, not atomically.
func (r *Repository) DeleteHabit(id string) error {
	if err := r.deleteHabitOnly(id); err != nil {
		return err
	}

	r.ticks.mu.Lock()
	defer r.ticks.mu.Unlock()

	ts, err := r.ticks.load(r.store)
	if err != nil {
		return err
	}
	next := slices.DeleteFunc(slices.Clone(ts), func(t models.HabitTick) bool { return t.HabitID == id })
	return r.ticks.put(r.store, next)
}

func (r *Repository) deleteHabitOnly(id string) error {
	r.habits.mu.Lock()
	defer r.habits.mu.Unlock()

	hs, err := r.habits.load(r.store)
	if err != nil {
		return err
	}
	next := slices.DeleteFunc(slices.Clone(hs), func(h models.Habit) bool { return h.ID == id })
	return r.habits.put(r.store, next)
}

// --- Ticks

// AddTick adds amount to today's tick for habitID, creating it if needed.
func (r *Repository) AddTick(habitID string, amount int) error {
	today := r.Today()
	if err := r.mutateTick(habitID, today, func(existing int) int { return existing + amount }); err != nil {
		return err
	}
	r.listeners.Notify()
	return nil
}

// SetTick overwrites the tick for habitID on date with amount.
func (r *Repository) SetTick(habitID, date string, amount int) error {
	if err := r.mutateTick(habitID, date, func(int) int { return amount }); err != nil {
		return err
	}
	r.listeners.Notify()
	return nil
}

// mutateTick applies fn to the (habitID, date) tick under the tick lock.
// A missing tick starts from zero.
func (r *Repository) mutateTick(habitID, date string, fn func(existing int) int) error {
	r.ticks.mu.Lock()
	defer r.ticks.mu.Unlock()

	ts, err := r.ticks.load(r.store)
	if err != nil {
		return err
	}

	next := slices.Clone(ts)
	idx := slices.IndexFunc(next, func(t models.HabitTick) bool { return t.HabitID == habitID && t.Date == date })
	if idx >= 0 {
		next[idx].Amount = fn(next[idx].Amount)
	} else {
		next = append(next, models.HabitTick{HabitID: habitID, Date: date, Amount: fn(0)})
	}
	return r.ticks.put(r.store, next)
}

func (r *Repository) filterTicks(keep func(models.HabitTick) bool) ([]models.HabitTick, error) {
	r.ticks.mu.Lock()
	defer r.ticks.mu.Unlock()

	ts, err := r.ticks.load(r.store)
	if err != nil {
		return nil, err
	}
	out := []models.HabitTick{}
	for _, t := range ts {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Repository) GetTicksForHabit(habitID string) ([]models.HabitTick, error) {
	return r.filterTicks(func(t models.HabitTick) bool { return t.HabitID == habitID })
}

func (r *Repository) GetTicksForDate(date string) ([]models.HabitTick, error) {
	return r.filterTicks(func(t models.HabitTick) bool { return t.Date == date })
}

func (r *Repository) GetAllTicks() ([]models.HabitTick, error) {
	return r.filterTicks(func(models.HabitTick) bool { return true })
}

// --- Moods

// GetAllMoods returns mood entries newest first. Reads never prune.
func (r *Repository) GetAllMoods() ([]models.MoodEntry, error) {
	r.moods.mu.Lock()
	defer r.moods.mu.Unlock()

	ms, err := r.moods.load(r.store)
	if err != nil {
		return nil, err
	}
	return cloneMoods(ms), nil
}

// AddMood prepends m and drops entries older than the retention window.
func (r *Repository) AddMood(m models.MoodEntry) error {
	if m.ID == "" {
		return ErrMissingID
	}

	r.moods.mu.Lock()
	defer r.moods.mu.Unlock()

	ms, err := r.moods.load(r.store)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(ms, func(e models.MoodEntry) bool { return e.ID == m.ID }) {
		return fmt.Errorf("mood %s: %w", m.ID, ErrDuplicateID)
	}

	cutoff := r.now().Add(-moodRetention).UnixMilli()
	next := make([]models.MoodEntry, 0, len(ms)+1)
	next = append(next, m.Clone())
	next = append(next, ms...)
	next = slices.DeleteFunc(next, func(e models.MoodEntry) bool { return e.Timestamp < cutoff })
	return r.moods.put(r.store, next)
}

// newMoodID is swapped in tests to force id collisions.
var newMoodID = models.NewMoodID

// moodIDAttempts bounds RecordMood's retries on a colliding id.
const moodIDAttempts = 5

// RecordMood builds an entry for emoji at the given time and adds it,
// drawing a fresh id when one collides with an existing entry.
func (r *Repository) RecordMood(emoji, note string, at time.Time) (models.MoodEntry, error) {
	entry := models.NewMoodEntry(emoji, note, utils.NowMillis(at))
	var err error
	for range moodIDAttempts {
		entry.ID = newMoodID(entry.Timestamp)
		if err = r.AddMood(entry); !errors.Is(err, ErrDuplicateID) {
			return entry, err
		}
	}
	return models.MoodEntry{}, err
}

// UpdateMood replaces the entry with the same id. An unknown id is a silent no-op.
func (r *Repository) UpdateMood(m models.MoodEntry) error {
	r.moods.mu.Lock()
	defer r.moods.mu.Unlock()

	ms, err := r.moods.load(r.store)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(ms, func(e models.MoodEntry) bool { return e.ID == m.ID })
	if idx < 0 {
		return nil
	}
	next := slices.Clone(ms)
	next[idx] = m.Clone()
	return r.moods.put(r.store, next)
}

func (r *Repository) DeleteMood(id string) error {
	r.moods.mu.Lock()
	defer r.moods.mu.Unlock()

	ms, err := r.moods.load(r.store)
	if err != nil {
		return err
	}
	next := slices.DeleteFunc(slices.Clone(ms), func(e models.MoodEntry) bool { return e.ID == id })
	return r.moods.put(r.store, next)
}

// --- Settings

// GetSettings never returns a nil record; absent settings read as defaults.
func (r *Repository) GetSettings() (models.AppSettings, error) {
	r.settings.mu.Lock()
	defer r.settings.mu.Unlock()

	s, err := r.settings.load(r.store)
	if err != nil {
		return models.AppSettings{}, err
	}
	return s.Clone(), nil
}

func (r *Repository) SaveSettings(s models.AppSettings) error {
	r.settings.mu.Lock()
	defer r.settings.mu.Unlock()
	return r.settings.put(r.store, s.Clone())
}

// --- Listeners

// AddListener registers l for tick-change events. Re-adding the same
// listener returns its existing subscription.
func (r *Repository) AddListener(l events.Listener) *events.Subscription {
	return r.listeners.Add(l)
}

// SetWidgetRefresher replaces the collaborator refreshed after each tick change.
func (r *Repository) SetWidgetRefresher(refresher events.Refresher) {
	r.listeners.SetRefresher(refresher)
}

// RefreshWidget rewrites the widget after a write that does not touch ticks,
// such as a settings save or habit delete. Failures are logged.
func (r *Repository) RefreshWidget() {
	r.listeners.Refresh()
}

// RemoveListener deregisters l. Unknown listeners are ignored.
func (r *Repository) RemoveListener(l events.Listener) {
	r.listeners.Remove(l)
}

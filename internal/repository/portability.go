package repository

import (
	"fmt"

	"github.com/julianstephens/strive/internal/codec"
	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/logger"
	"github.com/julianstephens/strive/internal/models"
)

// Snapshot loads every collection and returns them as an export bundle.
func (r *Repository) Snapshot() (models.ExportBundle, error) {
	profile, err := r.GetUserProfile()
	if err != nil {
		return models.ExportBundle{}, err
	}
	habits, err := r.GetAllHabits()
	if err != nil {
		return models.ExportBundle{}, err
	}
	ticks, err := r.GetAllTicks()
	if err != nil {
		return models.ExportBundle{}, err
	}
	moods, err := r.GetAllMoods()
	if err != nil {
		return models.ExportBundle{}, err
	}
	settings, err := r.GetSettings()
	if err != nil {
		return models.ExportBundle{}, err
	}

	return models.ExportBundle{
		Version:     constants.ExportFormatVersion,
		ExportedAt:  r.now().UnixMilli(),
		UserProfile: profile,
		Habits:      habits,
		Ticks:       ticks,
		Moods:       moods,
		Settings:    settings,
	}, nil
}

// ExportAllToJSON serializes a snapshot of every collection.
func (r *Repository) ExportAllToJSON() (string, error) {
	b, err := r.Snapshot()
	if err != nil {
		return "", err
	}
	return codec.Encode(b)
}

// ImportFromJSON restores an exported bundle.
//
// Replace mode overwrites every collection with the bundle's contents, except
// that a bundle without a profile leaves the current profile alone. Merge mode
// only adds records whose id (or habit and date, for ticks) is not present
// yet and writes the profile only when none exists. Settings are replaced in
// both modes.
func (r *Repository) ImportFromJSON(data string, merge bool) error {
	bundle, err := codec.Decode[*models.ExportBundle](data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if bundle == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidBundle)
	}
	if bundle.Version != constants.ExportFormatVersion {
		logger.Warn("Importing bundle with unexpected version", "version", bundle.Version, "expected", constants.ExportFormatVersion)
	}

	if merge {
		return r.mergeBundle(*bundle)
	}
	return r.replaceWith(*bundle)
}

// ImportBundle applies an already decoded bundle.
func (r *Repository) ImportBundle(bundle models.ExportBundle, merge bool) error {
	if merge {
		return r.mergeBundle(bundle)
	}
	return r.replaceWith(bundle)
}

func (r *Repository) replaceWith(b models.ExportBundle) error {
	if b.UserProfile != nil {
		if err := r.SaveUserProfile(*b.UserProfile); err != nil {
			return err
		}
	}

	if err := r.replaceHabits(cloneHabits(b.Habits)); err != nil {
		return err
	}
	if err := r.replaceTicks(append([]models.HabitTick{}, b.Ticks...)); err != nil {
		return err
	}
	if err := r.replaceMoods(cloneMoods(b.Moods)); err != nil {
		return err
	}
	return r.SaveSettings(b.Settings)
}

func (r *Repository) replaceHabits(hs []models.Habit) error {
	r.habits.mu.Lock()
	defer r.habits.mu.Unlock()
	return r.habits.put(r.store, hs)
}

func (r *Repository) replaceTicks(ts []models.HabitTick) error {
	r.ticks.mu.Lock()
	defer r.ticks.mu.Unlock()
	return r.ticks.put(r.store, ts)
}

func (r *Repository) replaceMoods(ms []models.MoodEntry) error {
	r.moods.mu.Lock()
	defer r.moods.mu.Unlock()
	return r.moods.put(r.store, ms)
}

func (r *Repository) mergeBundle(b models.ExportBundle) error {
	if b.UserProfile != nil {
		if err := r.saveProfileIfAbsent(*b.UserProfile); err != nil {
			return err
		}
	}
	if len(b.Habits) > 0 {
		if err := r.mergeHabits(b.Habits); err != nil {
			return err
		}
	}
	if len(b.Ticks) > 0 {
		if err := r.mergeTicks(b.Ticks); err != nil {
			return err
		}
	}
	if len(b.Moods) > 0 {
		if err := r.mergeMoods(b.Moods); err != nil {
			return err
		}
	}
	return r.SaveSettings(b.Settings)
}

func (r *Repository) saveProfileIfAbsent(p models.UserProfile) error {
	r.profile.mu.Lock()
	defer r.profile.mu.Unlock()

	current, err := r.profile.load(r.store)
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}
	return r.profile.put(r.store, &p)
}

// mergeHabits appends bundle habits whose ids are new.
func (r *Repository) mergeHabits(incoming []models.Habit) error {
	r.habits.mu.Lock()
	defer r.habits.mu.Unlock()

	hs, err := r.habits.load(r.store)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(hs))
	for _, h := range hs {
		seen[h.ID] = true
	}

	next := cloneHabits(hs)
	for _, h := range incoming {
		if !seen[h.ID] {
			seen[h.ID] = true
			next = append(next, h.Clone())
		}
	}
	if len(next) == len(hs) {
		return nil
	}
	return r.habits.put(r.store, next)
}

// mergeTicks appends bundle ticks for (habit, date) pairs not yet recorded.
// Existing amounts are never changed.
func (r *Repository) mergeTicks(incoming []models.HabitTick) error {
	r.ticks.mu.Lock()
	defer r.ticks.mu.Unlock()

	ts, err := r.ticks.load(r.store)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(ts))
	for _, t := range ts {
		seen[t.Key()] = true
	}

	next := append([]models.HabitTick{}, ts...)
	for _, t := range incoming {
		if !seen[t.Key()] {
			seen[t.Key()] = true
			next = append(next, t)
		}
	}
	if len(next) == len(ts) {
		return nil
	}
	return r.ticks.put(r.store, next)
}

// mergeMoods prepends bundle moods whose ids are new, keeping bundle order.
func (r *Repository) mergeMoods(incoming []models.MoodEntry) error {
	r.moods.mu.Lock()
	defer r.moods.mu.Unlock()

	ms, err := r.moods.load(r.store)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(ms))
	for _, m := range ms {
		seen[m.ID] = true
	}

	var added []models.MoodEntry
	for _, m := range incoming {
		if !seen[m.ID] {
			seen[m.ID] = true
			added = append(added, m.Clone())
		}
	}
	if len(added) == 0 {
		return nil
	}
	return r.moods.put(r.store, append(added, cloneMoods(ms)...))
}

// ResetAll clears the store and every cache, then persists the built-in habits.
func (r *Repository) ResetAll() error {
	r.profile.mu.Lock()
	defer r.profile.mu.Unlock()
	r.habits.mu.Lock()
	defer r.habits.mu.Unlock()
	r.ticks.mu.Lock()
	defer r.ticks.mu.Unlock()
	r.moods.mu.Lock()
	defer r.moods.mu.Unlock()
	r.settings.mu.Lock()
	defer r.settings.mu.Unlock()

	if err := r.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	r.profile.reset()
	r.habits.reset()
	r.ticks.reset()
	r.moods.reset()
	r.settings.reset()

	return r.habits.put(r.store, BuiltInHabits(r.now().UnixMilli()))
}

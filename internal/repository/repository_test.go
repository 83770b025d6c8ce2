package repository

import (
	"errors"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/strive/internal/codec"
	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/events"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/storage"
)

var fixedNow = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func setupTestRepo(t *testing.T, opts ...Option) (*Repository, *storage.MemoryStore, func()) {
	t.Helper()
	store := storage.NewMemoryStore()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC)}, opts...)
	repo := New(store, opts...)

	cleanup := func() {
		store.Close()
	}

	return repo, store, cleanup
}

// failingStore fails every Set once armed.
type failingStore struct {
	*storage.MemoryStore
	failSet bool
}

func (f *failingStore) Set(key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(key, value)
}

type countingListener struct{ calls int }

func (c *countingListener) OnTicksChanged() { c.calls++ }

type countingRefresher struct {
	calls int
	err   error
}

func (c *countingRefresher) RefreshAll() error {
	c.calls++
	return c.err
}

func TestTickAccumulation(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	amounts := []int{250, 500, 125}
	for _, a := range amounts {
		if err := repo.AddTick(HabitWater, a); err != nil {
			t.Fatalf("AddTick() error = %v", err)
		}
	}

	ticks, err := repo.GetTicksForHabit(HabitWater)
	if err != nil {
		t.Fatalf("GetTicksForHabit() error = %v", err)
	}
	if len(ticks) != 1 {
		t.Fatalf("got %d ticks, want 1", len(ticks))
	}
	if ticks[0].Amount != 875 {
		t.Errorf("Amount = %d, want 875", ticks[0].Amount)
	}
	if ticks[0].Date != "2026-10-19" {
		t.Errorf("Date = %q, want 2026-10-19", ticks[0].Date)
	}
}

func TestTickDateUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 20:00 UTC is already the next day in Tokyo.
	late := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)
	repo := New(storage.NewMemoryStore(), WithClock(func() time.Time { return late }), WithLocation(tokyo))

	if err := repo.AddTick(HabitSteps, 1000); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}
	ticks, err := repo.GetTicksForDate("2026-10-20")
	if err != nil {
		t.Fatalf("GetTicksForDate() error = %v", err)
	}
	if len(ticks) != 1 {
		t.Errorf("expected tick on the Tokyo date, got %v", ticks)
	}
}

func TestTickOverwrite(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	if err := repo.SetTick(HabitMeditate, "2026-10-18", 100); err != nil {
		t.Fatalf("SetTick() error = %v", err)
	}
	if err := repo.SetTick(HabitMeditate, "2026-10-18", 50); err != nil {
		t.Fatalf("SetTick() error = %v", err)
	}

	ticks, err := repo.GetTicksForDate("2026-10-18")
	if err != nil {
		t.Fatalf("GetTicksForDate() error = %v", err)
	}
	if len(ticks) != 1 || ticks[0].Amount != 50 {
		t.Errorf("ticks = %+v, want single tick with amount 50", ticks)
	}
}

func TestTickUniqueness(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	ops := []func() error{
		func() error { return repo.AddTick(HabitWater, 250) },
		func() error { return repo.SetTick(HabitWater, "2026-10-19", 10) },
		func() error { return repo.AddTick(HabitWater, 5) },
		func() error { return repo.SetTick(HabitWater, "2026-10-18", 1) },
		func() error { return repo.AddTick(HabitSteps, 1000) },
		func() error { return repo.SetTick(HabitWater, "2026-10-18", 2) },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d error = %v", i, err)
		}
	}

	all, err := repo.GetAllTicks()
	if err != nil {
		t.Fatalf("GetAllTicks() error = %v", err)
	}
	seen := map[string]bool{}
	for _, tk := range all {
		if seen[tk.Key()] {
			t.Errorf("duplicate tick for %s", tk.Key())
		}
		seen[tk.Key()] = true
	}
	if len(all) != 3 {
		t.Errorf("got %d ticks, want 3", len(all))
	}
}

func TestDeleteHabitCascades(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	if err := repo.AddTick(HabitWater, 250); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}
	if err := repo.SetTick(HabitWater, "2026-10-01", 500); err != nil {
		t.Fatalf("SetTick() error = %v", err)
	}
	if err := repo.AddTick(HabitSteps, 1000); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}

	if err := repo.DeleteHabit(HabitWater); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}

	ticks, err := repo.GetTicksForHabit(HabitWater)
	if err != nil {
		t.Fatalf("GetTicksForHabit() error = %v", err)
	}
	if len(ticks) != 0 {
		t.Errorf("ticks for deleted habit = %v, want none", ticks)
	}
	h, err := repo.GetHabit(HabitWater)
	if err != nil {
		t.Fatalf("GetHabit() error = %v", err)
	}
	if h != nil {
		t.Error("deleted habit is still listed")
	}
	steps, _ := repo.GetTicksForHabit(HabitSteps)
	if len(steps) != 1 {
		t.Errorf("unrelated ticks were removed: %v", steps)
	}
}

func populate(t *testing.T, repo *Repository) {
	t.Helper()
	note := "calm"
	steps := []error{
		repo.SaveUserProfile(models.UserProfile{Name: "Ana", Age: 31, Gender: "Female", AvatarEmoji: "🤩", CreatedAt: 1}),
		repo.AddHabit(models.NewHabit("h_read", "Read", "📚", models.UnitCount, 1, 1, 2)),
		repo.AddTick(HabitWater, 750),
		repo.SetTick("h_read", "2026-10-18", 1),
		repo.AddMood(models.MoodEntry{ID: "m1", Emoji: "😁", Timestamp: fixedNow.UnixMilli() - 1000, Score: 5}),
		repo.AddMood(models.MoodEntry{ID: "m2", Emoji: "😓", Note: &note, Timestamp: fixedNow.UnixMilli(), Score: 2}),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("populate step %d error = %v", i, err)
		}
	}
	s, err := repo.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	s.Theme = "dark"
	s.NotificationsAll = true
	s.WidgetSelectedHabitID = HabitWater
	if err := repo.SaveSettings(s); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
}

func state(t *testing.T, repo *Repository) models.ExportBundle {
	t.Helper()
	b, err := repo.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	b.ExportedAt = 0
	return b
}

func TestExportImportRoundTrip(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()
	populate(t, repo)

	before := state(t, repo)
	exported, err := repo.ExportAllToJSON()
	if err != nil {
		t.Fatalf("ExportAllToJSON() error = %v", err)
	}

	if err := repo.ImportFromJSON(exported, false); err != nil {
		t.Fatalf("ImportFromJSON() error = %v", err)
	}
	if after := state(t, repo); !reflect.DeepEqual(before, after) {
		t.Errorf("state changed after round trip:\nbefore %+v\nafter  %+v", before, after)
	}

	// The same document restores into a fresh repository too.
	fresh, _, cleanupFresh := setupTestRepo(t)
	defer cleanupFresh()
	if err := fresh.ImportFromJSON(exported, false); err != nil {
		t.Fatalf("ImportFromJSON() into fresh repo error = %v", err)
	}
	if got := state(t, fresh); !reflect.DeepEqual(before, got) {
		t.Errorf("fresh repo differs:\nwant %+v\ngot  %+v", before, got)
	}
}

func TestReplaceImportKeepsProfileWhenBundleHasNone(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()
	populate(t, repo)

	if err := repo.ImportFromJSON(`{"version":1,"exportedAt":0,"userProfile":null,"habits":[],"ticks":[],"moods":[]}`, false); err != nil {
		t.Fatalf("ImportFromJSON() error = %v", err)
	}
	p, err := repo.GetUserProfile()
	if err != nil {
		t.Fatalf("GetUserProfile() error = %v", err)
	}
	if p == nil || p.Name != "Ana" {
		t.Errorf("profile = %+v, want existing profile kept", p)
	}
	habits, _ := repo.GetAllHabits()
	if len(habits) != 0 {
		t.Errorf("habits = %v, want replaced by empty list", habits)
	}
	s, _ := repo.GetSettings()
	if s.Theme != "system" {
		t.Errorf("settings theme = %q, want bundle default system", s.Theme)
	}
}

func TestMergeImportIdempotent(t *testing.T) {
	source, _, cleanupSource := setupTestRepo(t)
	defer cleanupSource()
	populate(t, source)
	exported, err := source.ExportAllToJSON()
	if err != nil {
		t.Fatalf("ExportAllToJSON() error = %v", err)
	}

	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()
	if err := repo.AddTick(HabitWater, 100); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}

	if err := repo.ImportFromJSON(exported, true); err != nil {
		t.Fatalf("first merge error = %v", err)
	}
	once := state(t, repo)
	if err := repo.ImportFromJSON(exported, true); err != nil {
		t.Fatalf("second merge error = %v", err)
	}
	twice := state(t, repo)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second merge changed state:\nonce  %+v\ntwice %+v", once, twice)
	}
}

func TestMergeImportSemantics(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	if err := repo.SaveUserProfile(models.UserProfile{Name: "Local"}); err != nil {
		t.Fatalf("SaveUserProfile() error = %v", err)
	}
	if err := repo.AddTick(HabitWater, 100); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}
	if err := repo.AddMood(models.MoodEntry{ID: "local", Emoji: "😐", Timestamp: fixedNow.UnixMilli(), Score: 3}); err != nil {
		t.Fatalf("AddMood() error = %v", err)
	}

	incoming := models.ExportBundle{
		Version:     1,
		UserProfile: &models.UserProfile{Name: "Remote"},
		Habits: []models.Habit{
			{ID: HabitWater, Title: "Remote Water", ReminderTimes: []string{}, Enabled: true},
			models.NewHabit("h_new", "New", "🆕", models.UnitCount, 1, 1, 0),
		},
		Ticks: []models.HabitTick{
			{HabitID: HabitWater, Date: "2026-10-19", Amount: 9999},
			{HabitID: HabitWater, Date: "2026-10-17", Amount: 300},
		},
		Moods: []models.MoodEntry{
			{ID: "local", Emoji: "😡", Timestamp: 1, Score: 1},
			{ID: "remote", Emoji: "😁", Timestamp: fixedNow.UnixMilli() - 5, Score: 5},
		},
		Settings: models.DefaultSettings(),
	}
	incoming.Settings.Theme = "light"
	raw, err := codec.Encode(incoming)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if err := repo.ImportFromJSON(raw, true); err != nil {
		t.Fatalf("ImportFromJSON() error = %v", err)
	}

	p, _ := repo.GetUserProfile()
	if p.Name != "Local" {
		t.Errorf("profile = %q, merge must not replace an existing profile", p.Name)
	}

	habits, _ := repo.GetAllHabits()
	if len(habits) != 4 || habits[3].ID != "h_new" {
		t.Errorf("habits = %v, want seed plus h_new appended", ids(habits))
	}
	water, _ := repo.GetHabit(HabitWater)
	if water.Title != "Drink Water" {
		t.Errorf("existing habit was overwritten: %q", water.Title)
	}

	today, _ := repo.GetTicksForDate("2026-10-19")
	if len(today) != 1 || today[0].Amount != 100 {
		t.Errorf("today's tick = %v, merge must not change existing amounts", today)
	}
	older, _ := repo.GetTicksForDate("2026-10-17")
	if len(older) != 1 || older[0].Amount != 300 {
		t.Errorf("new tick not merged: %v", older)
	}

	moods, _ := repo.GetAllMoods()
	if len(moods) != 2 || moods[0].ID != "remote" || moods[1].Emoji != "😐" {
		t.Errorf("moods = %+v, want remote prepended and local untouched", moods)
	}

	s, _ := repo.GetSettings()
	if s.Theme != "light" {
		t.Errorf("settings theme = %q, merge replaces settings", s.Theme)
	}
}

func TestMergeImportProfileWhenAbsent(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	if err := repo.ImportFromJSON(`{"version":1,"exportedAt":0,"userProfile":{"name":"Remote","age":20,"gender":"Other"}}`, true); err != nil {
		t.Fatalf("ImportFromJSON() error = %v", err)
	}
	p, _ := repo.GetUserProfile()
	if p == nil || p.Name != "Remote" || p.AvatarEmoji != "😃" {
		t.Errorf("profile = %+v, want Remote with default avatar", p)
	}
}

func ids(hs []models.Habit) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.ID
	}
	return out
}

func TestImportInvalid(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()
	populate(t, repo)
	before := state(t, repo)

	for _, doc := range []string{"", "null", "[1,2]", `{"habits":"nope"}`, "not json"} {
		if err := repo.ImportFromJSON(doc, false); !errors.Is(err, ErrInvalidBundle) {
			t.Errorf("ImportFromJSON(%q) error = %v, want ErrInvalidBundle", doc, err)
		}
	}
	if after := state(t, repo); !reflect.DeepEqual(before, after) {
		t.Error("a rejected import changed state")
	}
}

func TestImportVersionMismatchAccepted(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	if err := repo.ImportFromJSON(`{"version":7,"exportedAt":0,"habits":[]}`, false); err != nil {
		t.Fatalf("ImportFromJSON() error = %v", err)
	}
}

func TestMoodRetention(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	day := int64(24 * time.Hour / time.Millisecond)
	old := models.MoodEntry{ID: "old", Emoji: "😢", Timestamp: fixedNow.UnixMilli() - 181*day, Score: 1}
	edge := models.MoodEntry{ID: "edge", Emoji: "😐", Timestamp: fixedNow.UnixMilli() - 180*day, Score: 3}

	// Seed through an import so nothing is pruned yet.
	raw, _ := codec.Encode(models.ExportBundle{Version: 1, Habits: BuiltInHabits(0), Moods: []models.MoodEntry{edge, old}, Settings: models.DefaultSettings()})
	if err := repo.ImportFromJSON(raw, false); err != nil {
		t.Fatalf("ImportFromJSON() error = %v", err)
	}

	moods, _ := repo.GetAllMoods()
	if len(moods) != 2 {
		t.Fatalf("reads must not prune: got %d moods", len(moods))
	}

	if err := repo.AddMood(models.NewMoodEntry("😁", "", fixedNow.UnixMilli())); err != nil {
		t.Fatalf("AddMood() error = %v", err)
	}
	moods, _ = repo.GetAllMoods()
	for _, m := range moods {
		if m.ID == "old" {
			t.Error("mood older than 180 days survived AddMood")
		}
	}
	if len(moods) != 2 || moods[1].ID != "edge" {
		t.Errorf("moods = %+v, want new entry then edge", moods)
	}
}

func TestSeedOnFirstRead(t *testing.T) {
	repo, store, cleanup := setupTestRepo(t)
	defer cleanup()

	if _, ok, _ := store.Get(constants.KeyHabits); ok {
		t.Fatal("fresh store should have no habits key")
	}

	habits, err := repo.GetAllHabits()
	if err != nil {
		t.Fatalf("GetAllHabits() error = %v", err)
	}
	want := []string{HabitWater, HabitMeditate, HabitSteps}
	if !slices.Equal(ids(habits), want) {
		t.Errorf("habits = %v, want %v", ids(habits), want)
	}

	raw, ok, err := store.Get(constants.KeyHabits)
	if err != nil || !ok {
		t.Fatalf("seed was not persisted: (%v, %v)", ok, err)
	}
	persisted, err := codec.Decode[[]models.Habit](raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(persisted, habits) {
		t.Errorf("persisted seed differs from returned seed")
	}

	water := habits[0]
	if water.TargetPerDay != 2000 || water.DefaultIncrement != 250 || !water.IsBuiltIn || !water.IsStarred || len(water.ReminderTimes) != 4 {
		t.Errorf("water seed = %+v", water)
	}
}

func TestLitersNormalization(t *testing.T) {
	repo, store, cleanup := setupTestRepo(t)
	defer cleanup()

	h := models.NewHabit("h_juice", "Juice", "🧃", models.UnitLiters, 2, 1, 0)
	if err := repo.AddHabit(h); err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}

	// Read back through a cold repository to check what was persisted.
	cold := New(store)
	got, err := cold.GetHabit("h_juice")
	if err != nil || got == nil {
		t.Fatalf("GetHabit() = (%v, %v)", got, err)
	}
	if got.Unit != models.UnitML || got.TargetPerDay != 2000 || got.DefaultIncrement != 1000 {
		t.Errorf("habit = (%s, %d, %d), want (ML, 2000, 1000)", got.Unit, got.TargetPerDay, got.DefaultIncrement)
	}

	got.Unit = models.UnitLiters
	got.TargetPerDay = 3
	got.DefaultIncrement = 1
	if err := cold.UpdateHabit(*got); err != nil {
		t.Fatalf("UpdateHabit() error = %v", err)
	}
	updated, _ := cold.GetHabit("h_juice")
	if updated.Unit != models.UnitML || updated.TargetPerDay != 3000 {
		t.Errorf("updated habit = (%s, %d), want (ML, 3000)", updated.Unit, updated.TargetPerDay)
	}
}

func TestAddHabitPrependsAndRejectsDuplicates(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	if err := repo.AddHabit(models.NewHabit("h1", "One", "1️⃣", models.UnitCount, 1, 1, 0)); err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}
	habits, _ := repo.GetAllHabits()
	if habits[0].ID != "h1" {
		t.Errorf("first habit = %s, want h1", habits[0].ID)
	}

	if err := repo.AddHabit(models.NewHabit("h1", "Again", "1️⃣", models.UnitCount, 1, 1, 0)); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate AddHabit() error = %v, want ErrDuplicateID", err)
	}
	if err := repo.AddHabit(models.Habit{}); !errors.Is(err, ErrMissingID) {
		t.Errorf("AddHabit() without id error = %v, want ErrMissingID", err)
	}
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	repo, store, cleanup := setupTestRepo(t)
	defer cleanup()

	if _, err := repo.GetAllHabits(); err != nil {
		t.Fatalf("GetAllHabits() error = %v", err)
	}
	before, _, _ := store.Get(constants.KeyHabits)

	if err := repo.UpdateHabit(models.Habit{ID: "ghost", Title: "Ghost"}); err != nil {
		t.Errorf("UpdateHabit(unknown) error = %v, want nil", err)
	}
	if err := repo.UpdateMood(models.MoodEntry{ID: "ghost"}); err != nil {
		t.Errorf("UpdateMood(unknown) error = %v, want nil", err)
	}

	after, _, _ := store.Get(constants.KeyHabits)
	if before != after {
		t.Error("no-op update rewrote the habits blob")
	}
	if _, ok, _ := store.Get(constants.KeyMoods); ok {
		t.Error("no-op mood update persisted a moods blob")
	}
}

func TestMoodUpdateDelete(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	m := models.NewMoodEntry("😐", "", fixedNow.UnixMilli())
	if err := repo.AddMood(m); err != nil {
		t.Fatalf("AddMood() error = %v", err)
	}
	m.Emoji = "😁"
	m.Score = models.EmojiScore(m.Emoji)
	if err := repo.UpdateMood(m); err != nil {
		t.Fatalf("UpdateMood() error = %v", err)
	}
	moods, _ := repo.GetAllMoods()
	if moods[0].Score != 5 {
		t.Errorf("Score = %d, want 5", moods[0].Score)
	}

	if err := repo.DeleteMood(m.ID); err != nil {
		t.Fatalf("DeleteMood() error = %v", err)
	}
	moods, _ = repo.GetAllMoods()
	if len(moods) != 0 {
		t.Errorf("moods = %v, want none", moods)
	}
}

func setMoodIDs(t *testing.T, ids ...string) {
	t.Helper()
	orig := newMoodID
	t.Cleanup(func() { newMoodID = orig })
	next := 0
	newMoodID = func(int64) string {
		id := ids[min(next, len(ids)-1)]
		next++
		return id
	}
}

func TestRecordMoodRetriesCollidingID(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	existing := models.NewMoodEntry("😐", "", fixedNow.UnixMilli())
	existing.ID = "mood_1_1"
	if err := repo.AddMood(existing); err != nil {
		t.Fatalf("AddMood() error = %v", err)
	}

	setMoodIDs(t, "mood_1_1", "mood_1_2")
	entry, err := repo.RecordMood("😁", "great day", fixedNow)
	if err != nil {
		t.Fatalf("RecordMood() error = %v", err)
	}
	if entry.ID != "mood_1_2" {
		t.Errorf("ID = %q, want mood_1_2", entry.ID)
	}
	if entry.Score != 5 || entry.NoteText() != "great day" {
		t.Errorf("entry = %+v, want score 5 with note", entry)
	}

	moods, _ := repo.GetAllMoods()
	if len(moods) != 2 || moods[0].ID != "mood_1_2" {
		t.Errorf("moods = %+v, want new entry first", moods)
	}
}

func TestRecordMoodGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	existing := models.NewMoodEntry("😐", "", fixedNow.UnixMilli())
	existing.ID = "mood_1_1"
	if err := repo.AddMood(existing); err != nil {
		t.Fatalf("AddMood() error = %v", err)
	}

	setMoodIDs(t, "mood_1_1")
	if _, err := repo.RecordMood("😁", "", fixedNow); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("RecordMood() error = %v, want ErrDuplicateID", err)
	}
}

func TestRefreshWidgetSkipsListeners(t *testing.T) {
	refresher := &countingRefresher{}
	repo, _, cleanup := setupTestRepo(t, WithWidgetRefresher(refresher))
	defer cleanup()
	l := &countingListener{}
	repo.AddListener(l)

	repo.RefreshWidget()

	if refresher.calls != 1 {
		t.Errorf("refresher calls = %d, want 1", refresher.calls)
	}
	if l.calls != 0 {
		t.Errorf("listener calls = %d, want 0", l.calls)
	}
}

func TestReset(t *testing.T) {
	repo, store, cleanup := setupTestRepo(t)
	defer cleanup()
	populate(t, repo)
	if err := store.Set("legacy_key", "x"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := repo.ResetAll(); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}

	p, err := repo.GetUserProfile()
	if err != nil || p != nil {
		t.Errorf("GetUserProfile() = (%v, %v), want nil profile", p, err)
	}
	moods, _ := repo.GetAllMoods()
	if len(moods) != 0 {
		t.Errorf("moods = %v, want none", moods)
	}
	habits, _ := repo.GetAllHabits()
	if !reflect.DeepEqual(habits, BuiltInHabits(fixedNow.UnixMilli())) {
		t.Errorf("habits = %v, want the built-in seed", ids(habits))
	}
	s, _ := repo.GetSettings()
	if !reflect.DeepEqual(s, models.DefaultSettings()) {
		t.Errorf("settings = %+v, want defaults", s)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !slices.Equal(keys, []string{constants.KeyHabits}) {
		t.Errorf("store keys = %v, want only the habits key", keys)
	}
}

func TestCorruptStateNotCachedOrOverwritten(t *testing.T) {
	repo, store, cleanup := setupTestRepo(t)
	defer cleanup()

	if err := store.Set(constants.KeyTicks, "{broken"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := repo.GetAllTicks(); !errors.Is(err, ErrCorruptState) {
		t.Errorf("GetAllTicks() error = %v, want ErrCorruptState", err)
	}
	if err := repo.AddTick(HabitWater, 1); !errors.Is(err, ErrCorruptState) {
		t.Errorf("AddTick() error = %v, want ErrCorruptState", err)
	}
	raw, _, _ := store.Get(constants.KeyTicks)
	if raw != "{broken" {
		t.Errorf("corrupt blob was overwritten with %q", raw)
	}

	// Other collections keep working.
	if _, err := repo.GetAllHabits(); err != nil {
		t.Errorf("GetAllHabits() error = %v", err)
	}

	// Once repaired out of band, the collection loads.
	if err := store.Set(constants.KeyTicks, "[]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := repo.GetAllTicks(); err != nil {
		t.Errorf("GetAllTicks() after repair error = %v", err)
	}
}

func TestFailedWriteLeavesCacheUntouched(t *testing.T) {
	store := &failingStore{MemoryStore: storage.NewMemoryStore()}
	repo := New(store, WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))

	if err := repo.AddTick(HabitWater, 250); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}
	listener := &countingListener{}
	repo.AddListener(listener)

	store.failSet = true
	if err := repo.AddTick(HabitWater, 250); err == nil {
		t.Fatal("AddTick() should fail when the store rejects writes")
	}
	ticks, _ := repo.GetTicksForHabit(HabitWater)
	if ticks[0].Amount != 250 {
		t.Errorf("Amount = %d after failed write, want 250", ticks[0].Amount)
	}
	if listener.calls != 0 {
		t.Error("listeners must not be notified for a failed write")
	}
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	habits, _ := repo.GetAllHabits()
	habits[0].Title = "mutated"
	habits[0].ReminderTimes[0] = "00:00"

	again, _ := repo.GetAllHabits()
	if again[0].Title == "mutated" || again[0].ReminderTimes[0] == "00:00" {
		t.Error("caller mutation leaked into the cache")
	}

	s, _ := repo.GetSettings()
	s.NotificationChannels["general"] = true
	s2, _ := repo.GetSettings()
	if s2.NotificationChannels["general"] {
		t.Error("settings map shared with the cache")
	}
}

func TestNotificationsOnTickChanges(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("widget host unavailable")}
	repo, _, cleanup := setupTestRepo(t, WithWidgetRefresher(refresher))
	defer cleanup()

	listener := &countingListener{}
	sub := repo.AddListener(listener)
	repo.AddListener(listener)

	if err := repo.AddTick(HabitWater, 250); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}
	if err := repo.SetTick(HabitWater, "2026-10-01", 1); err != nil {
		t.Fatalf("SetTick() error = %v", err)
	}
	if err := repo.AddHabit(models.NewHabit("h", "H", "H", models.UnitCount, 1, 1, 0)); err != nil {
		t.Fatalf("AddHabit() error = %v", err)
	}

	if listener.calls != 2 {
		t.Errorf("listener calls = %d, want 2", listener.calls)
	}
	if refresher.calls != 2 {
		t.Errorf("refresher calls = %d, want 2", refresher.calls)
	}

	sub.Cancel()
	repo.RemoveListener(listener)
	if err := repo.AddTick(HabitWater, 1); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}
	if listener.calls != 2 {
		t.Errorf("listener notified after cancel")
	}
}

func TestListenerCanReadRepository(t *testing.T) {
	repo, _, cleanup := setupTestRepo(t)
	defer cleanup()

	var seen int
	repo.AddListener(events.ListenerFunc(func() {
		ticks, err := repo.GetTicksForDate(repo.Today())
		if err != nil {
			t.Errorf("GetTicksForDate() inside listener error = %v", err)
			return
		}
		seen = ticks[0].Amount
	}))

	if err := repo.AddTick(HabitWater, 300); err != nil {
		t.Fatalf("AddTick() error = %v", err)
	}
	if seen != 300 {
		t.Errorf("listener saw %d, want 300", seen)
	}
}

func TestConcurrentAddTick(t *testing.T) {
	repo, store, cleanup := setupTestRepo(t)
	defer cleanup()

	const workers, per = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				if err := repo.AddTick(HabitWater, 1); err != nil {
					t.Errorf("AddTick() error = %v", err)
					return
				}
				if _, err := repo.GetAllHabits(); err != nil {
					t.Errorf("GetAllHabits() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	ticks, _ := repo.GetTicksForHabit(HabitWater)
	if len(ticks) != 1 || ticks[0].Amount != workers*per {
		t.Errorf("ticks = %+v, want single tick with amount %d", ticks, workers*per)
	}

	// The persisted copy agrees with memory.
	cold := New(store, WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
	persisted, _ := cold.GetTicksForHabit(HabitWater)
	if len(persisted) != 1 || persisted[0].Amount != workers*per {
		t.Errorf("persisted ticks = %+v", persisted)
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	repo, store, cleanup := setupTestRepo(t)
	defer cleanup()
	populate(t, repo)
	want := state(t, repo)

	cold := New(store, WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
	if got := state(t, cold); !reflect.DeepEqual(want, got) {
		t.Errorf("cold repository differs:\nwant %+v\ngot  %+v", want, got)
	}
}

package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/repository"
	"github.com/julianstephens/strive/internal/storage"
	"github.com/julianstephens/strive/internal/tui/components/habits"
	"github.com/julianstephens/strive/internal/tui/components/moods"
)

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func setupTestModel(t *testing.T, opts ...repository.Option) (Model, *repository.Repository, func()) {
	t.Helper()
	store := storage.NewMemoryStore()
	opts = append([]repository.Option{
		repository.WithClock(func() time.Time { return fixedNow }),
		repository.WithLocation(time.UTC),
	}, opts...)
	repo := repository.New(store, opts...)
	m := NewModel(repo)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = next.(Model)

	cleanup := func() {
		m.Close()
		store.Close()
	}
	return m, repo, cleanup
}

type countingRefresher struct{ calls int }

func (c *countingRefresher) RefreshAll() error {
	c.calls++
	return nil
}

func doneFor(t *testing.T, m Model, id string) int {
	t.Helper()
	for _, it := range m.habitsModel.Items() {
		if it.Habit.ID == id {
			return it.Done
		}
	}
	t.Fatalf("habit %s not listed", id)
	return 0
}

// drainChange delivers the pending listener notification, if any.
func drainChange(t *testing.T, m Model) Model {
	t.Helper()
	select {
	case <-m.changes:
	default:
		t.Fatal("expected a pending tick change")
	}
	next, cmd := m.Update(ticksChangedMsg{})
	if cmd == nil {
		t.Fatal("expected the change watcher to be re-armed")
	}
	return next.(Model)
}

func TestNewModelListsSeededHabits(t *testing.T) {
	m, _, cleanup := setupTestModel(t)
	defer cleanup()

	items := m.habitsModel.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 habits, got %d", len(items))
	}
	if m.summary.Total != 3 {
		t.Errorf("summary total = %d, want 3", m.summary.Total)
	}
	if m.state != constants.StateHabits {
		t.Errorf("initial state = %v, want habits", m.state)
	}
}

func TestPlusKeyEmitsPlusMsg(t *testing.T) {
	m, _, cleanup := setupTestModel(t)
	defer cleanup()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	if cmd == nil {
		t.Fatal("expected a command for '+'")
	}
	msg, ok := cmd().(habits.PlusMsg)
	if !ok {
		t.Fatalf("expected PlusMsg, got %T", cmd())
	}
	if msg.ID != repository.HabitWater {
		t.Errorf("PlusMsg.ID = %s, want %s", msg.ID, repository.HabitWater)
	}
}

func TestPlusAddsDefaultIncrement(t *testing.T) {
	m, repo, cleanup := setupTestModel(t)
	defer cleanup()

	next, _ := m.Update(habits.PlusMsg{ID: repository.HabitWater})
	m = drainChange(t, next.(Model))

	if got := doneFor(t, m, repository.HabitWater); got != 250 {
		t.Errorf("water done = %d, want 250", got)
	}
	ticks, err := repo.GetTicksForDate("2026-10-19")
	if err != nil {
		t.Fatalf("GetTicksForDate failed: %v", err)
	}
	if len(ticks) != 1 || ticks[0].Amount != 250 {
		t.Errorf("unexpected ticks: %+v", ticks)
	}
}

func TestMinusFloorsAtZero(t *testing.T) {
	m, repo, cleanup := setupTestModel(t)
	defer cleanup()

	if err := repo.SetTick(repository.HabitMeditate, "2026-10-19", 3); err != nil {
		t.Fatalf("SetTick failed: %v", err)
	}
	m = drainChange(t, m)

	next, _ := m.Update(habits.MinusMsg{ID: repository.HabitMeditate})
	m = drainChange(t, next.(Model))

	if got := doneFor(t, m, repository.HabitMeditate); got != 0 {
		t.Errorf("meditate done = %d, want 0", got)
	}
}

func TestExternalTickRefreshesView(t *testing.T) {
	m, repo, cleanup := setupTestModel(t)
	defer cleanup()

	if err := repo.AddTick(repository.HabitSteps, 1000); err != nil {
		t.Fatalf("AddTick failed: %v", err)
	}

	msg := m.Init()()
	if _, ok := msg.(ticksChangedMsg); !ok {
		t.Fatalf("expected ticksChangedMsg, got %T", msg)
	}
	next, _ := m.Update(msg)
	m = next.(Model)

	if got := doneFor(t, m, repository.HabitSteps); got != 1000 {
		t.Errorf("steps done = %d, want 1000", got)
	}
}

func TestStarToggles(t *testing.T) {
	m, repo, cleanup := setupTestModel(t)
	defer cleanup()

	next, _ := m.Update(habits.StarMsg{ID: repository.HabitSteps})
	m = next.(Model)

	h, err := repo.GetHabit(repository.HabitSteps)
	if err != nil || h == nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if h.IsStarred {
		t.Error("expected steps to be unstarred")
	}
}

func TestSelectWidgetHabit(t *testing.T) {
	refresher := &countingRefresher{}
	m, repo, cleanup := setupTestModel(t, repository.WithWidgetRefresher(refresher))
	defer cleanup()

	next, _ := m.Update(habits.SelectWidgetMsg{ID: repository.HabitMeditate})
	m = next.(Model)

	settings, err := repo.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.WidgetSelectedHabitID != repository.HabitMeditate {
		t.Errorf("widget habit = %q", settings.WidgetSelectedHabitID)
	}
	if !m.summary.Card.Selected {
		t.Error("expected the summary card to show the selected habit")
	}
	if refresher.calls != 1 {
		t.Errorf("widget refreshes = %d, want 1", refresher.calls)
	}
}

func TestRecordMood(t *testing.T) {
	m, repo, cleanup := setupTestModel(t)
	defer cleanup()

	next, _ := m.Update(moods.RecordMoodMsg{Emoji: "😁"})
	m = next.(Model)

	entries, err := repo.GetAllMoods()
	if err != nil {
		t.Fatalf("GetAllMoods failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Score != 5 {
		t.Errorf("unexpected moods: %+v", entries)
	}
	if m.status == "" {
		t.Error("expected a status message")
	}
}

func TestTabCyclesState(t *testing.T) {
	m, _, cleanup := setupTestModel(t)
	defer cleanup()

	tests := []struct {
		key  tea.KeyMsg
		want constants.SessionState
	}{
		{tea.KeyMsg{Type: tea.KeyTab}, constants.StateMood},
		{tea.KeyMsg{Type: tea.KeyTab}, constants.StateHabits},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, constants.StateMood},
	}
	for _, tt := range tests {
		next, _ := m.Update(tt.key)
		m = next.(Model)
		if m.state != tt.want {
			t.Errorf("after %s state = %v, want %v", tt.key, m.state, tt.want)
		}
	}
}

func TestQuitCancelsListener(t *testing.T) {
	m, repo, cleanup := setupTestModel(t)
	defer cleanup()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	if cmd == nil || !m.quitting {
		t.Fatal("expected quit")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}

	if err := repo.AddTick(repository.HabitWater, 250); err != nil {
		t.Fatalf("AddTick failed: %v", err)
	}
	select {
	case <-m.changes:
		t.Error("listener still registered after quit")
	default:
	}
}

func TestViewShowsHabits(t *testing.T) {
	m, _, cleanup := setupTestModel(t)
	defer cleanup()

	view := m.View()
	for _, want := range []string{"Habits", "Mood", "Drink Water"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

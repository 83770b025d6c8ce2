package habits

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/reminders"
	"github.com/julianstephens/strive/internal/widget"
)

type PlusMsg struct {
	ID string
}

type MinusMsg struct {
	ID string
}

type StarMsg struct {
	ID string
}

type SelectWidgetMsg struct {
	ID string
}

type Item struct {
	Habit models.Habit
	Done  int
}

func (i Item) percent() int {
	if i.Habit.TargetPerDay <= 0 {
		return 0
	}
	return min(i.Done*100/i.Habit.TargetPerDay, 100)
}

func (i Item) Title() string {
	mark := "○"
	if i.Habit.TargetPerDay > 0 && i.Done >= i.Habit.TargetPerDay {
		mark = "✓"
	}
	title := fmt.Sprintf("%s %s %s", mark, i.Habit.Emoji, i.Habit.Title)
	if i.Habit.IsStarred {
		title += " ★"
	}
	return title
}

func (i Item) Description() string {
	return fmt.Sprintf("%s (%d%%) | +%s", widget.ProgressText(i.Habit, i.Done), i.percent(), reminders.IncrementLabel(i.Habit))
}

func (i Item) FilterValue() string { return i.Habit.Title }

type KeyMap struct {
	Plus   key.Binding
	Minus  key.Binding
	Star   key.Binding
	Widget key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Plus: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "add increment"),
		),
		Minus: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "undo increment"),
		),
		Star: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "star"),
		),
		Widget: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "show on widget"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func items(habits []models.Habit, ticks []models.HabitTick) []list.Item {
	done := make(map[string]int, len(ticks))
	for _, t := range ticks {
		done[t.HabitID] += t.Amount
	}
	out := make([]list.Item, 0, len(habits))
	for _, h := range habits {
		if !h.Enabled {
			continue
		}
		out = append(out, Item{Habit: h, Done: done[h.ID]})
	}
	return out
}

func New(habits []models.Habit, ticks []models.HabitTick, width, height int) Model {
	l := list.New(items(habits, ticks), list.NewDefaultDelegate(), width, height)
	l.Title = "Today"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Plus, keys.Minus, keys.Star}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Plus, keys.Minus, keys.Star, keys.Widget}
	}

	return Model{list: l, keys: keys}
}

// SetData replaces the rows, keeping the cursor position.
func (m *Model) SetData(habits []models.Habit, ticks []models.HabitTick) {
	m.list.SetItems(items(habits, ticks))
}

// Items returns the current rows.
func (m Model) Items() []Item {
	out := make([]Item, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		if i, ok := it.(Item); ok {
			out = append(out, i)
		}
	}
	return out
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		i, ok := m.list.SelectedItem().(Item)
		if !ok {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Plus):
			return m, func() tea.Msg { return PlusMsg{ID: i.Habit.ID} }
		case key.Matches(msg, m.keys.Minus):
			return m, func() tea.Msg { return MinusMsg{ID: i.Habit.ID} }
		case key.Matches(msg, m.keys.Star):
			return m, func() tea.Msg { return StarMsg{ID: i.Habit.ID} }
		case key.Matches(msg, m.keys.Widget):
			return m, func() tea.Msg { return SelectWidgetMsg{ID: i.Habit.ID} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Add one with 'strive habit add'."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

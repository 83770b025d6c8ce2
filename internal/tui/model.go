// Package tui is the interactive dashboard: today's habits with progress and
// a mood picker, kept current by a repository listener.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/events"
	"github.com/julianstephens/strive/internal/repository"
	"github.com/julianstephens/strive/internal/tui/components/habits"
	"github.com/julianstephens/strive/internal/tui/components/moods"
	"github.com/julianstephens/strive/internal/widget"
)

var tabs = []string{"Habits", "Mood"}

// ticksChangedMsg is delivered after any tick write, from any source.
type ticksChangedMsg struct{}

type Model struct {
	repo        *repository.Repository
	state       constants.SessionState
	keys        KeyMap
	help        help.Model
	habitsModel habits.Model
	moodsModel  moods.Model
	summary     widget.Summary
	status      string
	err         error
	changes     chan struct{}
	sub         *events.Subscription
	quitting    bool
	width       int
	height      int
}

func NewModel(repo *repository.Repository) Model {
	// Buffered so a burst of writes collapses into one pending refresh.
	changes := make(chan struct{}, 1)
	m := Model{
		repo:        repo,
		state:       constants.StateHabits,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		habitsModel: habits.New(nil, nil, 0, 0),
		moodsModel:  moods.New(0, 0),
		changes:     changes,
	}
	m.sub = repo.AddListener(events.ListenerFunc(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}))
	m.reload()
	return m
}

// Close removes the repository listener.
func (m Model) Close() {
	m.sub.Cancel()
}

// reload re-reads today's habits, ticks and the summary.
func (m *Model) reload() {
	hs, err := m.repo.GetAllHabits()
	if err != nil {
		m.err = err
		return
	}
	ticks, err := m.repo.GetTicksForDate(m.repo.Today())
	if err != nil {
		m.err = err
		return
	}
	summary, err := widget.Load(m.repo)
	if err != nil {
		m.err = err
		return
	}
	m.habitsModel.SetData(hs, ticks)
	m.summary = summary
	m.err = nil
}

// waitForChange blocks until the listener fires.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return ticksChangedMsg{}
	}
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Tab, m.keys.Reload, m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Reload}

	var actions []key.Binding
	switch m.state {
	case constants.StateHabits:
		hk := habits.DefaultKeyMap()
		actions = []key.Binding{hk.Plus, hk.Minus, hk.Star, hk.Widget}
	case constants.StateMood:
		actions = []key.Binding{key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "record mood"))}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

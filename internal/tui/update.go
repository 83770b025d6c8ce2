package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/tui/components/habits"
	"github.com/julianstephens/strive/internal/tui/components/moods"
)

const chromeHeight = 9

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		listHeight := max(msg.Height-chromeHeight, 1)
		m.habitsModel.SetSize(msg.Width, listHeight)
		m.moodsModel.SetSize(msg.Width, listHeight)
		return m, nil

	case ticksChangedMsg:
		m.reload()
		return m, waitForChange(m.changes)

	case habits.PlusMsg:
		m.applyIncrement(msg.ID, 1)
		return m, nil

	case habits.MinusMsg:
		m.applyIncrement(msg.ID, -1)
		return m, nil

	case habits.StarMsg:
		m.toggleStar(msg.ID)
		return m, nil

	case habits.SelectWidgetMsg:
		m.selectWidgetHabit(msg.ID)
		return m, nil

	case moods.RecordMoodMsg:
		if _, err := m.repo.RecordMood(msg.Emoji, "", m.repo.Now()); err != nil {
			m.err = err
		} else {
			m.status = fmt.Sprintf("Mood recorded: %s", msg.Emoji)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = constants.SessionState((int(m.state) + 1) % len(tabs))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = constants.SessionState((int(m.state) - 1 + len(tabs)) % len(tabs))
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Reload):
			m.reload()
			m.status = "Reloaded"
			return m, nil
		}
	}

	switch m.state {
	case constants.StateHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	case constants.StateMood:
		m.moodsModel, cmd = m.moodsModel.Update(msg)
	}
	return m, cmd
}

// applyIncrement adds or removes one default increment from today's tick.
// The reload happens when the tick listener fires.
func (m *Model) applyIncrement(id string, direction int) {
	h, err := m.repo.GetHabit(id)
	if err != nil || h == nil {
		m.err = fmt.Errorf("habit %s not found", id)
		return
	}

	if direction > 0 {
		err = m.repo.AddTick(h.ID, h.DefaultIncrement)
	} else {
		done := 0
		ticks, terr := m.repo.GetTicksForDate(m.repo.Today())
		if terr != nil {
			m.err = terr
			return
		}
		for _, t := range ticks {
			if t.HabitID == h.ID {
				done = t.Amount
			}
		}
		err = m.repo.SetTick(h.ID, m.repo.Today(), max(done-h.DefaultIncrement, 0))
	}
	if err != nil {
		m.err = err
		return
	}
	m.status = ""
}

func (m *Model) toggleStar(id string) {
	h, err := m.repo.GetHabit(id)
	if err != nil || h == nil {
		m.err = fmt.Errorf("habit %s not found", id)
		return
	}
	h.IsStarred = !h.IsStarred
	if err := m.repo.UpdateHabit(*h); err != nil {
		m.err = err
		return
	}
	m.reload()
}

func (m *Model) selectWidgetHabit(id string) {
	settings, err := m.repo.GetSettings()
	if err != nil {
		m.err = err
		return
	}
	settings.WidgetSelectedHabitID = id
	if err := m.repo.SaveSettings(settings); err != nil {
		m.err = err
		return
	}
	m.repo.RefreshWidget()
	m.reload()
	m.status = "Widget habit updated"
}

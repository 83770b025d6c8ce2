package moods

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/strive/internal/models"
)

// RecordMoodMsg asks the parent to record Emoji now.
type RecordMoodMsg struct {
	Emoji string
}

type Item struct {
	models.EmojiInfo
}

func (i Item) Title() string       { return i.Emoji + " " + i.Name }
func (i Item) Description() string { return fmt.Sprintf("score %d", i.Score) }
func (i Item) FilterValue() string { return i.Name }

type Model struct {
	list   list.Model
	record key.Binding
}

func New(width, height int) Model {
	items := make([]list.Item, len(models.EmojiPalette))
	for i, e := range models.EmojiPalette {
		items[i] = Item{EmojiInfo: e}
	}

	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	l := list.New(items, d, width, height)
	l.Title = "How are you feeling?"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	record := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "record mood"),
	)
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{record} }

	return Model{list: l, record: record}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering && key.Matches(k, m.record) {
		if i, ok := m.list.SelectedItem().(Item); ok {
			return m, func() tea.Msg { return RecordMoodMsg{Emoji: i.Emoji} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

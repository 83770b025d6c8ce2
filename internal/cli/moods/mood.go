package moods

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/utils"
)

type MoodCmd struct {
	Add     MoodAddCmd     `cmd:"" help:"Record how you feel."`
	List    MoodListCmd    `cmd:"" help:"List mood entries."`
	Edit    MoodEditCmd    `cmd:"" help:"Edit a mood entry."`
	Delete  MoodDeleteCmd  `cmd:"" help:"Delete a mood entry."`
	Palette MoodPaletteCmd `cmd:"" help:"Show the emoji palette and scores."`
}

// resolveEmoji accepts a palette emoji or its name.
func resolveEmoji(s string) string {
	s = strings.TrimSpace(s)
	for _, e := range models.EmojiPalette {
		if strings.EqualFold(e.Name, s) {
			return e.Emoji
		}
	}
	return s
}

type MoodAddCmd struct {
	Emoji string `arg:"" help:"Emoji or palette name (e.g. 'Good')."`
	Note  string `help:"Optional note."`
	At    string `help:"Time of the entry as YYYY-MM-DD HH:MM (default: now)."`
}

func (c *MoodAddCmd) Run(ctx *cli.Context) error {
	emoji := resolveEmoji(c.Emoji)
	if emoji == "" {
		return fmt.Errorf("emoji cannot be empty")
	}

	at := ctx.Repo.Now()
	if c.At != "" {
		t, err := time.ParseInLocation("2006-01-02 15:04", c.At, ctx.Repo.Location())
		if err != nil {
			return fmt.Errorf("invalid --at %q (expected YYYY-MM-DD HH:MM)", c.At)
		}
		at = t
	}

	entry, err := ctx.Repo.RecordMood(emoji, strings.TrimSpace(c.Note), at)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %s %s (score %d)\n", entry.Emoji, models.EmojiName(entry.Emoji), entry.Score)
	return nil
}

type MoodListCmd struct {
	Days int `help:"Only entries from the last N days (0 for all)." default:"7"`
}

func (c *MoodListCmd) Run(ctx *cli.Context) error {
	entries, err := ctx.Repo.GetAllMoods()
	if err != nil {
		return err
	}

	var cutoff int64
	if c.Days > 0 {
		cutoff = utils.NowMillis(ctx.Repo.Now().AddDate(0, 0, -c.Days))
	}

	shown, total := 0, 0
	for _, m := range entries {
		if m.Timestamp < cutoff {
			continue
		}
		shown++
		total += m.Score
		note := ""
		if m.Note != nil {
			note = "  " + *m.Note
		}
		fmt.Printf("%s  %s %-16s %d  %s%s\n", ctx.FormatTimestamp(m.Timestamp), m.Emoji, models.EmojiName(m.Emoji), m.Score, m.ID, note)
	}

	if shown == 0 {
		fmt.Println("No mood entries found.")
		return nil
	}
	fmt.Printf("\n%d entries, average score %.1f\n", shown, float64(total)/float64(shown))
	return nil
}

type MoodEditCmd struct {
	ID    string  `arg:"" help:"Mood entry id."`
	Emoji *string `help:"New emoji or palette name."`
	Note  *string `help:"New note (empty to clear)."`
}

func (c *MoodEditCmd) Run(ctx *cli.Context) error {
	entry, err := findMood(ctx, c.ID)
	if err != nil {
		return err
	}

	if c.Emoji != nil {
		entry.Emoji = resolveEmoji(*c.Emoji)
		entry.Score = models.EmojiScore(entry.Emoji)
	}
	if c.Note != nil {
		if note := strings.TrimSpace(*c.Note); note != "" {
			entry.Note = &note
		} else {
			entry.Note = nil
		}
	}

	if err := ctx.Repo.UpdateMood(entry); err != nil {
		return err
	}
	fmt.Printf("Updated mood entry %s\n", entry.ID)
	return nil
}

type MoodDeleteCmd struct {
	ID string `arg:"" help:"Mood entry id."`
}

func (c *MoodDeleteCmd) Run(ctx *cli.Context) error {
	if _, err := findMood(ctx, c.ID); err != nil {
		return err
	}
	if err := ctx.Repo.DeleteMood(c.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted mood entry %s\n", c.ID)
	return nil
}

func findMood(ctx *cli.Context, id string) (models.MoodEntry, error) {
	entries, err := ctx.Repo.GetAllMoods()
	if err != nil {
		return models.MoodEntry{}, err
	}
	for _, m := range entries {
		if m.ID == id {
			return m, nil
		}
	}
	return models.MoodEntry{}, fmt.Errorf("mood entry not found: %s", id)
}

type MoodPaletteCmd struct{}

func (c *MoodPaletteCmd) Run(ctx *cli.Context) error {
	for _, e := range models.EmojiPalette {
		fmt.Printf("%s  %-18s %d\n", e.Emoji, e.Name, e.Score)
	}
	return nil
}

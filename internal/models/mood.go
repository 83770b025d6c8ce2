package models

import (
	"fmt"
	"math/rand/v2"
)

// MoodEntry is a single emoji mood check-in
type MoodEntry struct {
	ID        string  `json:"id"`
	Emoji     string  `json:"emoji"`
	Note      *string `json:"note"`
	Timestamp int64   `json:"timestamp"`
	Score     int     `json:"score"`
}

// NewMoodEntry builds an entry whose score is derived from the emoji.
func NewMoodEntry(emoji, note string, timestampMillis int64) MoodEntry {
	m := MoodEntry{
		ID:        NewMoodID(timestampMillis),
		Emoji:     emoji,
		Timestamp: timestampMillis,
		Score:     EmojiScore(emoji),
	}
	if note != "" {
		m.Note = &note
	}
	return m
}

// NewMoodID returns an id of the form mood_<millis>_<0-999>.
func NewMoodID(timestampMillis int64) string {
	return fmt.Sprintf("mood_%d_%d", timestampMillis, rand.IntN(1000))
}

// NoteText returns the note or an empty string.
func (m MoodEntry) NoteText() string {
	if m.Note == nil {
		return ""
	}
	return *m.Note
}

// Clone returns a copy that does not share the note pointer.
func (m MoodEntry) Clone() MoodEntry {
	c := m
	if m.Note != nil {
		n := *m.Note
		c.Note = &n
	}
	return c
}

// EmojiInfo describes one palette entry
type EmojiInfo struct {
	Emoji string
	Name  string
	Score int
}

// EmojiPalette is ordered from best to worst mood.
var EmojiPalette = []EmojiInfo{
	{"😁", "Good", 5},
	{"😃", "Very Happy", 5},
	{"🤩", "Excited", 5},
	{"☺️", "Happy", 4},
	{"🙂", "Slightly Happy", 4},
	{"😮‍💨", "Relieved", 4},
	{"😐", "Neutral", 3},
	{"😶", "Meh", 3},
	{"🤔", "Thoughtful", 3},
	{"😧", "Surprised", 3},
	{"🙂‍↕️", "Relieved/Anxious", 3},
	{"😵‍💫", "Confused", 2},
	{"😞", "Disappointed", 2},
	{"😫", "Anxious", 2},
	{"😓", "Tired", 2},
	{"😟", "Embarrassed", 2},
	{"😢", "Sad", 1},
	{"😭", "Crying", 1},
	{"😤", "Angry", 1},
	{"😡", "Furious", 1},
}

var emojiIndex = func() map[string]EmojiInfo {
	m := make(map[string]EmojiInfo, len(EmojiPalette))
	for _, e := range EmojiPalette {
		m[e.Emoji] = e
	}
	return m
}()

// LookupEmoji reports the palette entry for emoji, if any.
func LookupEmoji(emoji string) (EmojiInfo, bool) {
	info, ok := emojiIndex[emoji]
	return info, ok
}

// EmojiScore returns the palette score, or 3 for emojis outside the palette.
func EmojiScore(emoji string) int {
	if info, ok := emojiIndex[emoji]; ok {
		return info.Score
	}
	return 3
}

// EmojiName returns the palette name, or "Mood" for emojis outside the palette.
func EmojiName(emoji string) string {
	if info, ok := emojiIndex[emoji]; ok {
		return info.Name
	}
	return "Mood"
}

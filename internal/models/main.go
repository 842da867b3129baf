// Package models defines the core data structures for cards, categories,
// grid settings and syncable user records.
package models

import (
	"slices"
	"strings"
)

// Card is a single selectable symbol on the board.
type Card struct {
	// FileName is the raw asset name including its extension.
	FileName string `json:"file_name"`
	// Label is the display (and spoken) text derived from FileName.
	Label string `json:"label"`
	// Path is an opaque resource locator for the image.
	Path string `json:"path"`
	// Folder is the lowercase category key the card belongs to.
	Folder string `json:"folder"`
	// Level is the CEFR tag parsed from FileName, empty when absent.
	Level string `json:"level,omitempty"`
}

// Identity returns the cross-source identity key: (folder, fileName) lowercased.
func (c Card) Identity() string {
	return strings.ToLower(c.Folder) + "/" + strings.ToLower(c.FileName)
}

// Category is a grouping of cards shown as a folder tile.
type Category struct {
	// Key is the lowercase category key used for matching.
	Key string `json:"key"`
	// Label is the normalized display name.
	Label string `json:"label"`
	// Path locates the category icon, empty when none was found.
	Path string `json:"path,omitempty"`
}

// VerbForms holds the derived forms of a verb.
type VerbForms struct {
	Base      string   `json:"base"`
	Past      string   `json:"past"`
	Perfect   string   `json:"perfect"`
	Negatives []string `json:"negatives"`
}

// Levels lists the accepted CEFR levels in ascending order.
var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// IsLevel reports whether s is one of the accepted CEFR levels.
func IsLevel(s string) bool {
	return slices.Contains(Levels, s)
}

// GridSize selects one of the fixed grid layouts.
type GridSize string

const (
	// GridSmall is the 5×9 layout.
	GridSmall GridSize = "small"
	// GridMedium is the 6×11 layout.
	GridMedium GridSize = "medium"
	// GridLarge is the 7×13 layout.
	GridLarge GridSize = "large"
)

// Valid reports whether g names a known layout.
func (g GridSize) Valid() bool {
	switch g {
	case GridSmall, GridMedium, GridLarge:
		return true
	}
	return false
}

// UserGridSettings are the per-user board preferences.
type UserGridSettings struct {
	GridSize      GridSize `json:"grid_size" validate:"required,oneof=small medium large"`
	VisibleLevels []string `json:"visible_levels" validate:"required,min=1,dive,oneof=A1 A2 B1 B2 C1 C2"`
	AISupport     bool     `json:"ai_support"`
}

// DefaultSettings returns the settings a new user starts with.
func DefaultSettings() UserGridSettings {
	return UserGridSettings{
		GridSize:      GridMedium,
		VisibleLevels: slices.Clone(Levels),
		AISupport:     false,
	}
}

// Normalize repairs s so that it is never partially invalid: unknown grid
// sizes fall back to the default and an empty or unrecognised level set falls
// back to all levels.
func (s UserGridSettings) Normalize() UserGridSettings {
	def := DefaultSettings()
	if !s.GridSize.Valid() {
		s.GridSize = def.GridSize
	}
	levels := make([]string, 0, len(s.VisibleLevels))
	for _, l := range s.VisibleLevels {
		l = strings.ToUpper(strings.TrimSpace(l))
		if IsLevel(l) && !slices.Contains(levels, l) {
			levels = append(levels, l)
		}
	}
	if len(levels) == 0 {
		levels = def.VisibleLevels
	}
	s.VisibleLevels = levels
	return s
}

// LevelSet returns the visible levels as a lookup set.
func (s UserGridSettings) LevelSet() map[string]bool {
	set := make(map[string]bool, len(s.VisibleLevels))
	for _, l := range s.VisibleLevels {
		set[l] = true
	}
	return set
}

// CustomWord is a user-created card.
type CustomWord struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	// Image is the resource locator of the uploaded picture.
	Image string `json:"image"`
}

// Utterance is one entry of the conversation history handed to a predictor.
type Utterance struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp_millis"`
	IsLocal   bool   `json:"is_local"`
}

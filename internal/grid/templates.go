package grid

import "github.com/atinyakov/SymbolBoard/internal/models"

// Blank marks a template slot that is permanently empty.
const Blank = ""

// Hand-curated home layouts, one row per line. Keys are lowercase file
// names without extension.
var (
	smallTemplate = []string{
		"i", "you", "want", "go", "stop", "more", "help", "yes", "no",
		"eat", "drink", "play", "like", "feel", "see", "need", "finish", "",
		"happy", "sad", "tired", "hungry", "hurt", "good", "bad", "big", "little",
		"what", "where", "who", "when", "this", "that", "here", "", "please",
		"mom", "dad", "friend", "toilet", "water", "food", "home", "", "thank_you",
	}

	mediumTemplate = []string{
		"i", "you", "he", "she", "we", "they", "want", "go", "stop", "more", "help",
		"eat", "drink", "play", "like", "feel", "see", "need", "make", "get", "put", "no",
		"is", "are", "can", "do", "have", "will", "not", "and", "with", "to", "yes",
		"happy", "sad", "tired", "hungry", "hurt", "sick", "good", "bad", "big", "little", "",
		"what", "where", "who", "when", "why", "how", "this", "that", "here", "there", "please",
		"mom", "dad", "friend", "toilet", "water", "food", "home", "school", "bed", "", "thank_you",
	}

	largeTemplate = []string{
		"i", "you", "he", "she", "it", "we", "they", "my", "your", "want", "go", "stop", "more",
		"eat", "drink", "play", "like", "love", "feel", "see", "look", "need", "make", "get", "put", "help",
		"is", "are", "am", "was", "can", "do", "have", "will", "not", "don't", "and", "with", "yes",
		"to", "in", "on", "up", "down", "out", "off", "for", "of", "the", "a", "", "no",
		"happy", "sad", "angry", "scared", "tired", "hungry", "hurt", "sick", "good", "bad", "big", "little", "",
		"what", "where", "who", "when", "why", "how", "which", "this", "that", "here", "there", "now", "please",
		"mom", "dad", "friend", "teacher", "toilet", "water", "food", "home", "school", "bed", "outside", "", "thank_you",
	}
)

// Template returns a copy of the home template for size. Unknown sizes get
// the medium template.
func Template(size models.GridSize) []string {
	var t []string
	switch size {
	case models.GridSmall:
		t = smallTemplate
	case models.GridLarge:
		t = largeTemplate
	default:
		t = mediumTemplate
	}
	return append([]string(nil), t...)
}

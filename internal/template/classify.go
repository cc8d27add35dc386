package template

import (
	"strings"
	"unicode"
)

// Tone labels for classified text.
const (
	ToneFormal       = "formal"
	ToneProfessional = "professional"
	ToneCasual       = "casual"
)

// Analysis is the advisory result of classifying freeform text. It
// never gates note creation.
type Analysis struct {
	Category       string   `json:"category"`
	Confidence     float64  `json:"confidence"`
	Tone           string   `json:"tone"`
	SuggestedTags  []string `json:"suggested_tags"`
	SuggestedEmoji string   `json:"suggested_emoji"`
}

const defaultEmoji = "📝"

// categoryKeywords pairs each catalog category with its keyword set.
// Order matters: ties resolve to the earliest entry.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"journal", []string{"today", "feeling", "grateful", "gratitude", "mood", "dream", "reflect", "diary"}},
	{"todo", []string{"task", "todo", "deadline", "finish", "complete", "buy", "remind", "errand"}},
	{"meeting", []string{"meeting", "attendees", "agenda", "action item", "discussed", "standup", "sync", "minutes"}},
	{"study", []string{"study", "learn", "chapter", "exam", "lecture", "concept", "review", "quiz"}},
}

var formalWords = []string{"dear", "sincerely", "regards", "to whom it may concern"}

// AnalyzeContent classifies text by keyword occurrence counts. The
// category with the most hits wins, ties going to the earliest
// category in catalog order. Confidence is hits divided by the size of
// the winning category's keyword set; with no hits at all the category
// is "other" at confidence 0.
func AnalyzeContent(text string) Analysis {
	lowered := strings.ToLower(text)

	bestIdx := -1
	bestHits := 0
	for i, c := range categoryKeywords {
		hits := 0
		for _, kw := range c.keywords {
			hits += strings.Count(lowered, kw)
		}
		if hits > bestHits {
			bestHits = hits
			bestIdx = i
		}
	}

	a := Analysis{
		Category:       "other",
		Tone:           detectTone(text, lowered),
		SuggestedEmoji: defaultEmoji,
	}
	if bestIdx < 0 {
		return a
	}

	winner := categoryKeywords[bestIdx]
	a.Category = winner.category
	a.Confidence = float64(bestHits) / float64(len(winner.keywords))
	if t, ok := ByID(winner.category); ok {
		a.SuggestedTags = append([]string{winner.category}, t.Tags...)
		a.SuggestedEmoji = t.Emoji
	} else {
		a.SuggestedTags = []string{winner.category}
	}
	return a
}

func detectTone(text, lowered string) string {
	for _, w := range formalWords {
		if strings.Contains(lowered, w) {
			return ToneFormal
		}
	}
	if len(strings.Fields(text)) > 200 && !containsEmoji(text) {
		return ToneProfessional
	}
	return ToneCasual
}

func containsEmoji(text string) bool {
	for _, r := range text {
		if r >= 0x1F300 && r <= 0x1FAFF {
			return true
		}
		if unicode.Is(unicode.So, r) {
			return true
		}
	}
	return false
}

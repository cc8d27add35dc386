package suggest

import (
	"regexp"
	"strings"
)

// Marker patterns over the free-text completion. A marker that never
// appears leaves its field absent; nothing here is an error.
var (
	titleRe        = regexp.MustCompile(`(?m)^\s*Title:\s*(.+)$`)
	tagsRe         = regexp.MustCompile(`(?m)^\s*Tags:\s*(.+)$`)
	summaryRe      = regexp.MustCompile(`(?m)^\s*Summary:\s*(.+)$`)
	improvementsRe = regexp.MustCompile(`(?s)Improvements:\s*(.+)`)
	toneRe         = regexp.MustCompile(`(?m)^\s*Tone:\s*(.+)$`)
	emojiRe        = regexp.MustCompile(`(?m)^\s*Emoji:\s*(.+)$`)
)

// Parse extracts labeled suggestion fields from model output. The
// Improvements field captures everything after its marker since models
// tend to elaborate across lines.
func Parse(text string) *Suggestions {
	s := &Suggestions{}

	if m := titleRe.FindStringSubmatch(text); m != nil {
		s.Title = strings.TrimSpace(m[1])
	}
	if m := tagsRe.FindStringSubmatch(text); m != nil {
		for _, tag := range strings.Split(m[1], ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				s.Tags = append(s.Tags, tag)
			}
		}
	}
	if m := summaryRe.FindStringSubmatch(text); m != nil {
		s.Summary = strings.TrimSpace(m[1])
	}
	if m := improvementsRe.FindStringSubmatch(text); m != nil {
		s.Improvements = strings.TrimSpace(m[1])
	}

	return s
}

// ParseTone extracts the tone and emoji markers. A model that ignores
// the labels and answers free-form still yields something useful: the
// whole trimmed reply becomes the tone.
func ParseTone(text string) *Tone {
	t := &Tone{}

	if m := toneRe.FindStringSubmatch(text); m != nil {
		t.Tone = strings.TrimSpace(m[1])
	}
	if m := emojiRe.FindStringSubmatch(text); m != nil {
		t.Emoji = strings.TrimSpace(m[1])
	}
	if t.Tone == "" && t.Emoji == "" {
		t.Tone = strings.TrimSpace(text)
	}

	return t
}

// Package template holds the static note-template catalog and a
// deterministic keyword classifier over freeform text.
package template

import (
	"retronotes/internal/note"
)

// Template is a prebuilt note skeleton.
type Template struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Blocks      []note.Block `json:"blocks"`
	Tags        []string     `json:"tags"`
	Emoji       string       `json:"emoji"`
}

var catalog = []Template{
	{
		ID:          "journal",
		Name:        "Journal Entry",
		Category:    "journal",
		Description: "Daily journal template with mood tracking",
		Blocks: []note.Block{
			{ID: "1", Type: note.BlockHeading, Content: "Daily Journal", Order: 0},
			{ID: "2", Type: note.BlockParagraph, Content: "How are you feeling today?", Order: 1},
			{ID: "3", Type: note.BlockTodo, Content: "Highlights of the day", Order: 2},
			{ID: "4", Type: note.BlockTodo, Content: "Challenges faced", Order: 3},
			{ID: "5", Type: note.BlockParagraph, Content: "Gratitude", Order: 4},
		},
		Tags:  []string{"daily", "personal"},
		Emoji: "📔",
	},
	{
		ID:          "todo",
		Name:        "To-Do List",
		Category:    "todo",
		Description: "Task management template",
		Blocks: []note.Block{
			{ID: "1", Type: note.BlockHeading, Content: "To-Do List", Order: 0},
			{ID: "2", Type: note.BlockTodo, Content: "First task", Order: 1},
			{ID: "3", Type: note.BlockTodo, Content: "Second task", Order: 2},
			{ID: "4", Type: note.BlockDivider, Content: "", Order: 3},
			{ID: "5", Type: note.BlockParagraph, Content: "Notes", Order: 4},
		},
		Tags:  []string{"tasks", "productivity"},
		Emoji: "✅",
	},
	{
		ID:          "meeting",
		Name:        "Meeting Notes",
		Category:    "meeting",
		Description: "Template for capturing meeting discussions and action items",
		Blocks: []note.Block{
			{ID: "1", Type: note.BlockHeading, Content: "Meeting Notes", Order: 0},
			{ID: "2", Type: note.BlockParagraph, Content: "Attendees:", Order: 1},
			{ID: "3", Type: note.BlockParagraph, Content: "Agenda:", Order: 2},
			{ID: "4", Type: note.BlockTodo, Content: "Action Items", Order: 3},
			{ID: "5", Type: note.BlockParagraph, Content: "Next Steps", Order: 4},
		},
		Tags:  []string{"work", "meetings"},
		Emoji: "🗓️",
	},
	{
		ID:          "study",
		Name:        "Study Notes",
		Category:    "study",
		Description: "Template for organizing study materials and key concepts",
		Blocks: []note.Block{
			{ID: "1", Type: note.BlockHeading, Content: "Study Notes", Order: 0},
			{ID: "2", Type: note.BlockParagraph, Content: "Key Concepts", Order: 1},
			{ID: "3", Type: note.BlockCode, Content: "Code Examples", Order: 2},
			{ID: "4", Type: note.BlockTodo, Content: "Questions to Review", Order: 3},
			{ID: "5", Type: note.BlockParagraph, Content: "Summary", Order: 4},
		},
		Tags:  []string{"learning", "reference"},
		Emoji: "📚",
	},
}

// Catalog returns the full template list. Callers must not mutate the
// returned blocks; Instantiate gives a fresh copy.
func Catalog() []Template {
	return catalog
}

// ByID looks up a template by its id.
func ByID(id string) (Template, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Instantiate returns a deep copy of the template's blocks, safe to
// hand to a new note.
func (t Template) Instantiate() []note.Block {
	return note.CloneBlocks(t.Blocks)
}

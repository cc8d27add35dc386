package note

import "strings"

// BlockType is the kind of one content block.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockTodo      BlockType = "todo"
	BlockCode      BlockType = "code"
	BlockDivider   BlockType = "divider"
	BlockImage     BlockType = "image"
)

// ValidBlockType reports whether t is a known block type.
func ValidBlockType(t BlockType) bool {
	switch t {
	case BlockHeading, BlockParagraph, BlockTodo, BlockCode, BlockDivider, BlockImage:
		return true
	}
	return false
}

// Block is one typed unit of rich content within a note.
type Block struct {
	ID       string            `json:"id"`
	Type     BlockType         `json:"type"`
	Content  string            `json:"content"`
	Order    int               `json:"order"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TextBlocks converts flat text into the canonical block form: one
// paragraph block per non-empty line group. This is the one-way
// migration adapter for legacy flat-text content.
func TextBlocks(text string) []Block {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Block{}
	}

	paragraphs := strings.Split(text, "\n\n")
	blocks := make([]Block, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := NewID()
		if err != nil {
			id = ""
		}
		blocks = append(blocks, Block{
			ID:      id,
			Type:    BlockParagraph,
			Content: p,
			Order:   len(blocks),
		})
	}
	return blocks
}

// CloneBlocks deep-copies a block list.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		if b.Metadata != nil {
			md := make(map[string]string, len(b.Metadata))
			for k, v := range b.Metadata {
				md[k] = v
			}
			out[i].Metadata = md
		}
	}
	return out
}

// BlocksEqual reports whether two block lists carry identical content.
func BlocksEqual(a, b []Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Type != b[i].Type ||
			a[i].Content != b[i].Content || a[i].Order != b[i].Order {
			return false
		}
		if len(a[i].Metadata) != len(b[i].Metadata) {
			return false
		}
		for k, v := range a[i].Metadata {
			if b[i].Metadata[k] != v {
				return false
			}
		}
	}
	return true
}

// Markdown renders a block list as markdown text for display.
func Markdown(blocks []Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch b.Type {
		case BlockHeading:
			sb.WriteString("## ")
			sb.WriteString(b.Content)
		case BlockTodo:
			sb.WriteString("- [ ] ")
			sb.WriteString(b.Content)
		case BlockCode:
			sb.WriteString("```\n")
			sb.WriteString(b.Content)
			sb.WriteString("\n```")
		case BlockDivider:
			sb.WriteString("---")
		case BlockImage:
			sb.WriteString("![](")
			sb.WriteString(b.Content)
			sb.WriteString(")")
		default:
			sb.WriteString(b.Content)
		}
	}
	return sb.String()
}

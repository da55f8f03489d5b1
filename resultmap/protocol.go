package resultmap

import (
	"strings"

	vota "github.com/michivo/go-vota"
)

// LineKind tells how a protocol line should be rendered
type LineKind string

const (
	LineTitle   LineKind = "title"
	LineMessage LineKind = "message"
	LineResult  LineKind = "result"
)

// Line is one row of a flattened protocol.
type Line struct {
	Depth int
	Kind  LineKind
	Text  string
}

// FlattenProtocol walks the protocol tree depth first. Titles open a level,
// messages and results of a section are one level deeper than its title.
func FlattenProtocol(p *vota.Protocol) []Line {
	if p == nil {
		return nil
	}
	var lines []Line
	flatten(p, 0, &lines)
	return lines
}

func flatten(p *vota.Protocol, depth int, lines *[]Line) {
	if title := strings.TrimSpace(p.Title); title != "" {
		*lines = append(*lines, Line{Depth: depth, Kind: LineTitle, Text: title})
	}

	for _, msg := range p.Messages {
		if msg.IsSection() {
			flatten(msg.Section, depth+1, lines)
			continue
		}
		*lines = append(*lines, Line{Depth: depth + 1, Kind: LineMessage, Text: msg.Text})
	}

	for _, result := range p.Result {
		*lines = append(*lines, Line{Depth: depth + 1, Kind: LineResult, Text: result})
	}
}

// Render joins flattened lines, indenting each level by indent.
func Render(lines []Line, indent string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(strings.Repeat(indent, l.Depth))
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

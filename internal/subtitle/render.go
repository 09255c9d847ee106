package subtitle

import (
	"fmt"
	"strings"
)

// Render produces the full subtitle document for the given grammar.
// Cues are written in slice order with 1-based sequential numbering.
func Render(format Format, cues []Cue) string {
	var sb strings.Builder

	sep := ","
	if format == FormatVTT {
		// VTT header
		sb.WriteString("WEBVTT\n\n")
		sep = "."
	}

	for i, cue := range cues {
		// cue identifier (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			strings.ReplaceAll(cue.Start, Sep, sep),
			strings.ReplaceAll(cue.End, Sep, sep)))

		// text
		sb.WriteString(cue.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

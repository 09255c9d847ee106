package subtitle

import (
	"fmt"
	"strings"
)

// maximum display length for a cue title; longer titles are cut and
// marked with an ellipsis
const maxTitleLen = 100

const ellipsis = "..."

// StepTitle builds the display text for a recorded step:
// "actor.name(arg1,arg2)". Titles longer than 100 characters are
// truncated to the first 100 characters with an ellipsis appended.
func StepTitle(actor, name string, args []string) string {
	title := fmt.Sprintf("%s.%s(%s)", actor, name, strings.Join(args, ","))
	runes := []rune(title)
	if len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen]) + ellipsis
	}
	return title
}

package subtitle

import (
	"path/filepath"
	"strings"
)

// represents supported subtitle grammars
type Format string

const (
	FormatSRT Format = "SRT"
	FormatVTT Format = "WEBVTT"
)

// ParseFormat maps a configured format name to a Format. Only the exact
// value "WEBVTT" selects WebVTT; anything else (unset, misspelled,
// lowercase) falls back to SRT.
func ParseFormat(s string) Format {
	if s == string(FormatVTT) {
		return FormatVTT
	}
	return FormatSRT
}

// represents single timed cue in a subtitle track
type Cue struct {
	Start string // formatted offset, placeholder separator
	End   string
	Text  string
}

// file extension for a format
func Extension(format Format) string {
	if format == FormatVTT {
		return ".vtt"
	}
	return ".srt"
}

// OutputPath derives the subtitle path from a video artifact path:
// same directory, same base name, format-specific extension.
func OutputPath(videoPath string, format Format) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + Extension(format)
}

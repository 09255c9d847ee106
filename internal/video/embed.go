package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/stepcue/stepcue/internal/ffmpeg"
)

// Embedder muxes a subtitle file into a video as a soft subtitle track.
type Embedder interface {
	Embed(ctx context.Context, videoPath, subtitlePath string) (string, error)
}

// default implementation using ffmpeg
type DefaultEmbedder struct{}

func NewEmbedder() *DefaultEmbedder {
	return &DefaultEmbedder{}
}

// Embed writes a copy of the video with the subtitle attached as a
// stream (no re-encode) and returns its path: <base>.subbed.<ext>.
func (e *DefaultEmbedder) Embed(
	ctx context.Context,
	videoPath, subtitlePath string,
) (string, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return "", fmt.Errorf("video file not found: %s", videoPath)
	}
	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return "", fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return "", err
	}

	outputPath := embedOutputPath(videoPath)

	kwargs := ffmpeg.KwArgs{
		"c:v": "copy",
		"c:a": "copy",
		"c:s": subtitleCodecFor(videoPath),
		"y":   "",
	}

	inputs := []*ffmpeg.Stream{
		ffmpeg.Input(videoPath),
		ffmpeg.Input(subtitlePath),
	}

	err = ffmpeg.Output(inputs, outputPath, kwargs).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return "", fmt.Errorf("ffmpeg mux failed: %w", err)
	}

	return outputPath, nil
}

// embedOutputPath derives the muxed output next to the original video
func embedOutputPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + ".subbed" + ext
}

// subtitleCodecFor picks the subtitle stream codec a container accepts
func subtitleCodecFor(videoPath string) string {
	switch strings.ToLower(filepath.Ext(videoPath)) {
	case ".mp4", ".m4v", ".mov":
		return "mov_text"
	case ".webm":
		return "webvtt"
	default:
		return "srt"
	}
}

package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// FFmpegExtractor implements the FrameExtractor port by shelling out to ffmpeg
type FFmpegExtractor struct {
	binary string
}

// Ensure it implements the interface
var _ ports.FrameExtractor = (*FFmpegExtractor)(nil)

// NewFFmpegExtractor creates an extractor using the given ffmpeg binary
func NewFFmpegExtractor(binary string) *FFmpegExtractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegExtractor{binary: binary}
}

// ExtractFrame grabs the first frame of a video as JPEG bytes
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, videoPath string) ([]byte, error) {
	if !fileExists(videoPath) {
		return nil, fmt.Errorf("video not found: %s", videoPath)
	}

	// -v error          : only report failures
	// -frames:v 1       : a single frame
	// -f image2 -c:v mjpeg pipe:1 : JPEG on stdout
	args := []string{
		"-v", "error",
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("ffmpeg failed: %w", err)
		}
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, msg)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s", videoPath)
	}
	return stdout.Bytes(), nil
}

// IsAvailable checks if the ffmpeg binary is installed and available
func (e *FFmpegExtractor) IsAvailable() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// fileExists checks if a file exists and is a regular file
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

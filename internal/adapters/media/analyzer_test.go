package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/kamal-hamza/px-cli/internal/core/ports/mocks"
)

func testOptions() AnalyzerOptions {
	return AnalyzerOptions{
		ThumbnailMaxWidth:  200,
		ThumbnailMaxHeight: 150,
		ThumbnailQuality:   85,
	}
}

// fade is bright on the left and dark on the right
func fade(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255 - x*255/(w-1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAnalyzer_Image(t *testing.T) {
	path := writePNG(t, t.TempDir(), "wide.png", fade(800, 400))
	analyzer := NewAnalyzer(testOptions(), nil, nil)

	result, err := analyzer.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if result.CorruptedReason != "" {
		t.Fatalf("unexpected corruption: %s", result.CorruptedReason)
	}
	if result.Dimensions.Width != 800 || result.Dimensions.Height != 400 {
		t.Errorf("Dimensions = %+v", result.Dimensions)
	}
	if result.ThumbnailSize.Width != 200 || result.ThumbnailSize.Height != 100 {
		t.Errorf("ThumbnailSize = %+v, want 200x100", result.ThumbnailSize)
	}
	if _, err := jpeg.Decode(bytes.NewReader(result.Thumbnail)); err != nil {
		t.Errorf("thumbnail is not a JPEG: %v", err)
	}
	if result.DHash == 0 {
		t.Error("expected a non-zero dhash for a patterned image")
	}
}

func TestAnalyzer_CorruptedImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(path, []byte("definitely not a jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := NewAnalyzer(testOptions(), nil, nil).Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if result.CorruptedReason == "" {
		t.Error("expected a corruption reason")
	}
	if len(result.Thumbnail) != 0 {
		t.Error("corrupted image must not produce a thumbnail")
	}
}

func TestAnalyzer_HEICIsUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_0001.HEIC")
	if err := os.WriteFile(path, []byte("ftypheic"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := NewAnalyzer(testOptions(), nil, nil).Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if result.CorruptedReason == "" {
		t.Error("HEIC should be reported as unsupported")
	}
}

func TestAnalyzer_MissingFile(t *testing.T) {
	_, err := NewAnalyzer(testOptions(), nil, nil).Analyze(context.Background(), "/nonexistent/a.png")
	if err == nil {
		t.Error("expected error for unreadable file")
	}
}

func TestAnalyzer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAnalyzer(testOptions(), nil, nil).Analyze(ctx, "/any.png")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAnalyzer_Video(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(video, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	var frame bytes.Buffer
	if err := jpeg.Encode(&frame, fade(320, 240), nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		analyse       bool
		failExtract   bool
		wantThumbnail bool
	}{
		{name: "videos disabled", analyse: false, wantThumbnail: false},
		{name: "frame extracted", analyse: true, wantThumbnail: true},
		{name: "extraction fails", analyse: true, failExtract: true, wantThumbnail: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := mocks.NewMockFrameExtractor(frame.Bytes())
			if tt.failExtract {
				extractor.SetShouldFail(errors.New("ffmpeg missing"))
			}
			opts := testOptions()
			opts.AnalyseVideos = tt.analyse

			result, err := NewAnalyzer(opts, extractor, nil).Analyze(context.Background(), video)
			if err != nil {
				t.Fatalf("Analyze() error: %v", err)
			}
			if got := len(result.Thumbnail) > 0; got != tt.wantThumbnail {
				t.Errorf("thumbnail present = %v, want %v", got, tt.wantThumbnail)
			}
			if result.CorruptedReason != "" {
				t.Errorf("videos should never be marked corrupted, got %q", result.CorruptedReason)
			}
			if !tt.analyse && len(extractor.GetCalls()) != 0 {
				t.Error("extractor should not be called when video analysis is disabled")
			}
		})
	}
}

func TestFFmpegExtractor_MissingVideo(t *testing.T) {
	e := NewFFmpegExtractor("")
	if _, err := e.ExtractFrame(context.Background(), "/nonexistent/clip.mp4"); err == nil {
		t.Error("expected error for missing video")
	}
}

func TestFFmpegExtractor_MissingBinary(t *testing.T) {
	e := NewFFmpegExtractor("px-test-no-such-binary")
	if e.IsAvailable() {
		t.Fatal("binary should not be found")
	}

	video := filepath.Join(t.TempDir(), "clip.mp4")
	_ = os.WriteFile(video, []byte("video"), 0644)
	if _, err := e.ExtractFrame(context.Background(), video); err == nil {
		t.Error("expected error when ffmpeg is unavailable")
	}
}

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
	"github.com/kamal-hamza/px-cli/pkg/imaging"
)

// unsupportedExtensions are image formats that are cataloged but never decoded
var unsupportedExtensions = map[string]string{
	".heic": "HEIC",
}

// AnalyzerOptions configures thumbnail generation
type AnalyzerOptions struct {
	ThumbnailMaxWidth  int
	ThumbnailMaxHeight int
	ThumbnailQuality   int
	AnalyseVideos      bool
}

// Analyzer implements the MediaAnalyzer port on top of pkg/imaging
type Analyzer struct {
	opts      AnalyzerOptions
	extractor ports.FrameExtractor
	logger    *zap.Logger
}

// Ensure it implements the interface
var _ ports.MediaAnalyzer = (*Analyzer)(nil)

// NewAnalyzer creates an analyzer. extractor may be nil, in which case
// videos are cataloged without a thumbnail.
func NewAnalyzer(opts AnalyzerOptions, extractor ports.FrameExtractor, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		opts:      opts,
		extractor: extractor,
		logger:    logger,
	}
}

// Analyze inspects a media file. A returned error means the file could not be
// read at all; decode failures are reported through CorruptedReason instead.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*ports.MediaAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if domain.IsVideo(path) {
		return a.analyzeVideo(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if name, ok := unsupportedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return &ports.MediaAnalysis{
			CorruptedReason: fmt.Sprintf("unsupported format: %s images cannot be decoded", name),
		}, nil
	}

	decoded, err := imaging.Decode(data)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			reason = "unsupported format: file content is not a recognised image"
		}
		return &ports.MediaAnalysis{CorruptedReason: reason}, nil
	}

	degrees := imaging.OrientationDegrees(decoded.Orientation)
	return a.analyzeImage(decoded.Image, domain.Rotation(degrees))
}

func (a *Analyzer) analyzeImage(img image.Image, rotation domain.Rotation) (*ports.MediaAnalysis, error) {
	bounds := img.Bounds()
	result := &ports.MediaAnalysis{
		Dimensions: domain.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()},
		Rotation:   rotation,
	}
	if bounds.Empty() {
		result.CorruptedReason = "image has no pixels"
		return result, nil
	}

	upright := imaging.Rotate(img, int(rotation))
	result.DHash = imaging.DHash(upright)

	thumb := imaging.Thumbnail(upright, a.opts.ThumbnailMaxWidth, a.opts.ThumbnailMaxHeight)
	encoded, err := imaging.EncodeJPEG(thumb, a.opts.ThumbnailQuality)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	tb := thumb.Bounds()
	result.Thumbnail = encoded
	result.ThumbnailSize = domain.Dimensions{Width: tb.Dx(), Height: tb.Dy()}
	return result, nil
}

func (a *Analyzer) analyzeVideo(ctx context.Context, path string) (*ports.MediaAnalysis, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !a.opts.AnalyseVideos || a.extractor == nil {
		return &ports.MediaAnalysis{}, nil
	}

	frame, err := a.extractor.ExtractFrame(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("video frame extraction failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return &ports.MediaAnalysis{}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		a.logger.Warn("video frame could not be decoded",
			zap.String("path", path),
			zap.Error(err),
		)
		return &ports.MediaAnalysis{}, nil
	}
	return a.analyzeImage(img, domain.Rotate0)
}

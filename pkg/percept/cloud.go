package percept

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// FrameSource supplies encoded camera frames to remote detectors.
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}

// CloudConfig configures the Google Cloud Vision tier. Exactly one of
// APIKey or AccessToken must be set.
type CloudConfig struct {
	APIKey      string
	AccessToken string
	MaxResults  int64
}

// CloudDetector calls Google Cloud Vision object localization on camera
// frames. It satisfies Detector like the local blob tier, so the recognizer
// can fall back transparently when the network is away.
type CloudDetector struct {
	svc    *vision.Service
	frames FrameSource
	max    int64
	logger *slog.Logger
}

// NewCloudDetector builds the remote tier.
func NewCloudDetector(ctx context.Context, cfg CloudConfig, frames FrameSource, logger *slog.Logger) (*CloudDetector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
		opts = append(opts, option.WithTokenSource(ts))
	default:
		return nil, fmt.Errorf("cloud vision: API key or access token required")
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}

	max := cfg.MaxResults
	if max <= 0 {
		max = 10
	}
	return &CloudDetector{
		svc:    svc,
		frames: frames,
		max:    max,
		logger: logger.With("component", "percept.cloud"),
	}, nil
}

// Detect captures one frame and asks Cloud Vision what is in it.
func (d *CloudDetector) Detect() ([]Observation, error) {
	jpeg, err := d.frames.CaptureJPEG()
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(jpeg)},
			Features: []*vision.Feature{{
				Type:       "OBJECT_LOCALIZATION",
				MaxResults: d.max,
			}},
		}},
	}

	resp, err := d.svc.Images.Annotate(req).Do()
	if err != nil {
		return nil, fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}

	var out []Observation
	for _, ann := range resp.Responses[0].LocalizedObjectAnnotations {
		obs := annotationToObservation(ann)
		d.logger.Debug("cloud detection", "label", obs.Label, "score", ann.Score)
		out = append(out, obs)
	}
	return out, nil
}

// annotationToObservation converts a localized annotation's normalized
// bounding box into the rough range/bearing shape the narration expects.
func annotationToObservation(ann *vision.LocalizedObjectAnnotation) Observation {
	label := strings.ToLower(strings.ReplaceAll(ann.Name, " ", "_"))

	// Bounding box center and area in normalized [0,1] frame coords.
	var minX, minY, maxX, maxY float64 = 1, 1, 0, 0
	if ann.BoundingPoly != nil {
		for _, v := range ann.BoundingPoly.NormalizedVertices {
			if v.X < minX {
				minX = v.X
			}
			if v.X > maxX {
				maxX = v.X
			}
			if v.Y < minY {
				minY = v.Y
			}
			if v.Y > maxY {
				maxY = v.Y
			}
		}
	}
	areaFrac := (maxX - minX) * (maxY - minY)
	if areaFrac < 0 {
		areaFrac = 0
	}
	centerX := (minX + maxX) / 2

	return Observation{
		Label:      label,
		Color:      "unknown",
		Shape:      label,
		DistanceCM: estimateDistanceCM(areaFrac),
		AngleDeg:   (centerX - 0.5) * cameraFOVDeg,
	}
}

package percept

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// Camera geometry assumptions for range/bearing estimates. The ultrasonic
// sensor handles real clearance; these only need to be good enough for
// narration and grab plans.
const (
	cameraFOVDeg    = 62.0
	minBlobAreaFrac = 0.002 // ignore specks below 0.2% of the frame
	// A blob filling this fraction of the frame is assumed to be at arm's
	// reach (~15cm); range scales inversely with the square root of area.
	nearAreaFrac = 0.25
	nearCM       = 15.0
)

// BlobDetector is the local perception tier: HSV color-blob detection on a
// webcam frame. One instance owns the capture device.
type BlobDetector struct {
	profiles map[string]Profile
	logger   *slog.Logger

	mu  sync.Mutex
	cap *gocv.VideoCapture
}

// NewBlobDetector opens the camera at the given index.
func NewBlobDetector(cameraIndex int, profiles map[string]Profile, logger *slog.Logger) (*BlobDetector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if profiles == nil {
		profiles = DefaultProfiles
	}
	cap, err := gocv.OpenVideoCapture(cameraIndex)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cameraIndex, err)
	}
	return &BlobDetector{
		profiles: profiles,
		logger:   logger.With("component", "percept.blob"),
		cap:      cap,
	}, nil
}

// Detect captures one frame and matches every color profile against it.
func (d *BlobDetector) Detect() ([]Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cap == nil {
		return nil, fmt.Errorf("camera closed")
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := d.cap.Read(&frame); !ok || frame.Empty() {
		return nil, fmt.Errorf("camera read failed")
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	frameArea := float64(frame.Cols() * frame.Rows())
	var out []Observation
	for label, profile := range d.profiles {
		if obs, ok := d.matchProfile(hsv, frameArea, frame.Cols(), label, profile); ok {
			out = append(out, obs)
		}
	}
	return out, nil
}

// matchProfile masks the frame by the profile's HSV ranges and turns the
// largest contour into an observation.
func (d *BlobDetector) matchProfile(hsv gocv.Mat, frameArea float64, frameW int, label string, profile Profile) (Observation, bool) {
	mask := gocv.NewMat()
	defer mask.Close()

	for i, r := range profile.Ranges {
		lower := gocv.NewScalar(r.HMin, r.SMin, r.VMin, 0)
		upper := gocv.NewScalar(r.HMax, r.SMax, r.VMax, 0)
		part := gocv.NewMat()
		gocv.InRangeWithScalar(hsv, lower, upper, &part)
		if i == 0 {
			part.CopyTo(&mask)
		} else {
			gocv.BitwiseOr(mask, part, &mask)
		}
		part.Close()
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 || bestArea/frameArea < minBlobAreaFrac {
		return Observation{}, false
	}

	rect := gocv.BoundingRect(contours.At(best))
	return Observation{
		Label:      label,
		Color:      profile.Color,
		Shape:      profile.Shape,
		DistanceCM: estimateDistanceCM(bestArea / frameArea),
		AngleDeg:   bearingDeg(rect, frameW),
	}, true
}

// bearingDeg maps the blob center's horizontal offset to a camera-frame
// bearing.
func bearingDeg(rect image.Rectangle, frameW int) float64 {
	cx := float64(rect.Min.X+rect.Max.X) / 2
	offset := (cx - float64(frameW)/2) / (float64(frameW) / 2)
	return offset * cameraFOVDeg / 2
}

// estimateDistanceCM guesses range from apparent size.
func estimateDistanceCM(areaFrac float64) float64 {
	if areaFrac <= 0 {
		return 100.0
	}
	d := nearCM * math.Sqrt(nearAreaFrac/areaFrac)
	if d > 200 {
		d = 200
	}
	return d
}

// CaptureJPEG grabs one frame for the remote tier.
func (d *BlobDetector) CaptureJPEG() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cap == nil {
		return nil, fmt.Errorf("camera closed")
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := d.cap.Read(&frame); !ok || frame.Empty() {
		return nil, fmt.Errorf("camera read failed")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())
	return jpeg, nil
}

// Close releases the capture device.
func (d *BlobDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cap == nil {
		return nil
	}
	err := d.cap.Close()
	d.cap = nil
	return err
}

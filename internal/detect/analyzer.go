// Package detect holds the placeholder media classifier. Images are scored by
// the variance of a Laplacian edge response, audio and video draw labels from
// fixed random choices. None of this constitutes real deepfake detection; the
// package exists so the rest of the system has a stable scoring contract to
// build against.
package detect

import (
	"bytes"
	"image"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/medialens/backend/internal/models"
)

// blurThreshold separates blurry (likely manipulated) from sharp images.
const blurThreshold = 100.0

// Finding is the outcome of analyzing one media item.
type Finding struct {
	Label      string
	Confidence float64
}

// Analyzer scores uploaded media. The random source is injectable so tests
// can pin outputs; construction with a nil source seeds from the clock.
type Analyzer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAnalyzer constructs an Analyzer drawing randomness from src.
func NewAnalyzer(src rand.Source) *Analyzer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Analyzer{rng: rand.New(src)}
}

// Analyze classifies the raw file bytes according to the declared media type.
// It never fails: decode errors and internal panics surface as the "error"
// label with zero confidence.
func (a *Analyzer) Analyze(data []byte, contentType string) (finding Finding) {
	defer func() {
		if recover() != nil {
			finding = Finding{Label: models.DetectionError, Confidence: 0.0}
		}
	}()

	switch {
	case strings.HasPrefix(contentType, "image"):
		return a.analyzeImage(data)
	case strings.HasPrefix(contentType, "audio"):
		return Finding{
			Label:      a.pick(models.DetectionReal, models.DetectionFake, models.DetectionAIGenerated),
			Confidence: a.uniform(0.65, 0.90),
		}
	case strings.HasPrefix(contentType, "video"):
		return Finding{
			Label:      a.pick(models.DetectionReal, models.DetectionFake),
			Confidence: a.uniform(0.70, 0.88),
		}
	default:
		return Finding{Label: models.DetectionUnknown, Confidence: 0.5}
	}
}

func (a *Analyzer) analyzeImage(data []byte) Finding {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Finding{Label: models.DetectionError, Confidence: 0.0}
	}

	variance := laplacianVariance(img)
	if variance < blurThreshold {
		return Finding{Label: models.DetectionFake, Confidence: a.uniform(0.75, 0.95)}
	}
	return Finding{Label: models.DetectionReal, Confidence: a.uniform(0.70, 0.92)}
}

// uniform samples U[lo, hi) rounded to two decimals.
func (a *Analyzer) uniform(lo, hi float64) float64 {
	a.mu.Lock()
	v := lo + a.rng.Float64()*(hi-lo)
	a.mu.Unlock()
	return math.Round(v*100) / 100
}

func (a *Analyzer) pick(labels ...string) string {
	a.mu.Lock()
	label := labels[a.rng.Intn(len(labels))]
	a.mu.Unlock()
	return label
}

// laplacianVariance converts the image to grayscale, convolves it with the
// 3x3 Laplacian kernel and returns the variance of the response over the
// interior pixels. Low variance means few edges, i.e. a blurry image.
func laplacianVariance(img image.Image) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// ITU-R BT.601 luma, scaled back to 0..255.
			gray[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
		}
	}

	n := (w - 2) * (h - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := gray[(y-1)*w+x] + gray[(y+1)*w+x] + gray[y*w+x-1] + gray[y*w+x+1] - 4*gray[y*w+x]
			responses = append(responses, v)
			sum += v
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, v := range responses {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}

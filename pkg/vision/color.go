package vision

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"math/rand"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// ColorExtractor finds the dominant color of an image region by k-means clustering
type ColorExtractor struct {
	config ColorConfig
	logger *slog.Logger
}

// ColorConfig holds configuration for dominant color extraction
type ColorConfig struct {
	K             int
	Restarts      int
	MaxIterations int
	Tolerance     float64
	Seed          int64
	MaxSamples    int
}

// DefaultColorConfig returns the clustering parameters used by default
func DefaultColorConfig() ColorConfig {
	return ColorConfig{
		K:             3,
		Restarts:      10,
		MaxIterations: 300,
		Tolerance:     1e-4,
		Seed:          42,
		MaxSamples:    4096,
	}
}

// NewColorExtractor creates a ColorExtractor with default configuration
func NewColorExtractor() *ColorExtractor {
	return NewColorExtractorWithConfig(DefaultColorConfig(), nil)
}

// NewColorExtractorWithConfig creates a ColorExtractor with custom configuration
func NewColorExtractorWithConfig(config ColorConfig, logger *slog.Logger) *ColorExtractor {
	defaults := DefaultColorConfig()
	if config.K <= 0 {
		config.K = defaults.K
	}
	if config.Restarts <= 0 {
		config.Restarts = defaults.Restarts
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = defaults.MaxIterations
	}
	if config.Tolerance <= 0 {
		config.Tolerance = defaults.Tolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ColorExtractor{config: config, logger: logger}
}

// DominantColor returns the rounded centroid of the largest color cluster in the region.
// Empty regions and clustering failures yield black.
func (e *ColorExtractor) DominantColor(region image.Image) (dominant types.Color) {
	if region == nil {
		return types.Black
	}
	pixels := samplePixels(region, e.config.MaxSamples)
	if len(pixels) == 0 {
		return types.Black
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("dominant color extraction failed", "panic", r)
			dominant = types.Black
		}
	}()

	k := e.config.K
	if k > len(pixels) {
		k = len(pixels)
	}

	rng := rand.New(rand.NewSource(e.config.Seed))
	var best *clustering
	for run := 0; run < e.config.Restarts; run++ {
		c := runKMeans(pixels, k, rng, e.config.MaxIterations, e.config.Tolerance)
		if best == nil || c.inertia < best.inertia {
			best = &c
		}
	}

	largest := 0
	for i, n := range best.counts {
		if n > best.counts[largest] {
			largest = i
		}
	}

	center := best.centers[largest]
	for _, v := range center {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			e.logger.Debug("dominant color extraction produced a non-finite centroid")
			return types.Black
		}
	}

	return types.Color{R: toChannel(center[0]), G: toChannel(center[1]), B: toChannel(center[2])}
}

type point [3]float64

type clustering struct {
	centers []point
	counts  []int
	inertia float64
}

// samplePixels reads the region as 8-bit RGB, striding over large regions
func samplePixels(img image.Image, maxSamples int) []point {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil
	}

	step := 1
	if maxSamples > 0 && total > maxSamples {
		step = int(math.Ceil(float64(total) / float64(maxSamples)))
	}

	pixels := make([]point, 0, total/step+1)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if i%step == 0 {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				pixels = append(pixels, point{float64(c.R), float64(c.G), float64(c.B)})
			}
			i++
		}
	}
	return pixels
}

func runKMeans(pixels []point, k int, rng *rand.Rand, maxIter int, tol float64) clustering {
	centers := seedCenters(pixels, k, rng)
	labels := make([]int, len(pixels))

	for iter := 0; iter < maxIter; iter++ {
		assign(pixels, centers, labels)
		next := recompute(pixels, labels, centers)

		shift := 0.0
		for i := range centers {
			shift += dist2(centers[i], next[i])
		}
		centers = next
		if shift <= tol {
			break
		}
	}

	inertia := assign(pixels, centers, labels)
	counts := make([]int, len(centers))
	for _, l := range labels {
		counts[l]++
	}
	return clustering{centers: centers, counts: counts, inertia: inertia}
}

// seedCenters picks initial centroids with k-means++ weighting
func seedCenters(pixels []point, k int, rng *rand.Rand) []point {
	centers := make([]point, 0, k)
	centers = append(centers, pixels[rng.Intn(len(pixels))])

	weights := make([]float64, len(pixels))
	for len(centers) < k {
		total := 0.0
		for i, p := range pixels {
			_, d := nearest(p, centers)
			weights[i] = d
			total += d
		}
		if total == 0 {
			centers = append(centers, pixels[rng.Intn(len(pixels))])
			continue
		}

		target := rng.Float64() * total
		idx := len(pixels) - 1
		for i, w := range weights {
			target -= w
			if target < 0 {
				idx = i
				break
			}
		}
		centers = append(centers, pixels[idx])
	}
	return centers
}

// assign labels every pixel with its nearest center and returns the inertia
func assign(pixels []point, centers []point, labels []int) float64 {
	inertia := 0.0
	for i, p := range pixels {
		idx, d := nearest(p, centers)
		labels[i] = idx
		inertia += d
	}
	return inertia
}

// recompute returns the mean of each cluster; empty clusters keep their previous center
func recompute(pixels []point, labels []int, prev []point) []point {
	sums := make([]point, len(prev))
	counts := make([]int, len(prev))
	for i, p := range pixels {
		l := labels[i]
		sums[l][0] += p[0]
		sums[l][1] += p[1]
		sums[l][2] += p[2]
		counts[l]++
	}

	next := make([]point, len(prev))
	for i := range prev {
		if counts[i] == 0 {
			next[i] = prev[i]
			continue
		}
		n := float64(counts[i])
		next[i] = point{sums[i][0] / n, sums[i][1] / n, sums[i][2] / n}
	}
	return next
}

func nearest(p point, centers []point) (int, float64) {
	best, bestDist := 0, math.MaxFloat64
	for i, c := range centers {
		if d := dist2(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func dist2(a, b point) float64 {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dr*dr + dg*dg + db*db
}

func toChannel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

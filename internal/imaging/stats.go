package imaging

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// ChannelStatistics holds per-channel (R, G, B) statistics in 8-bit units
type ChannelStatistics struct {
	Mean   [3]float64
	StdDev [3]float64
}

// MaxStdDev returns the largest per-channel standard deviation
func (s ChannelStatistics) MaxStdDev() float64 {
	return math.Max(s.StdDev[0], math.Max(s.StdDev[1], s.StdDev[2]))
}

// rowMoments is the population mean and variance of one channel of one row
type rowMoments struct {
	mean, variance [3]float64
	n              float64
}

// ChannelStats computes the population mean and standard deviation of each
// color channel across every pixel of img. Rows are processed in parallel
// horizontal strips and combined with the parallel-axis rule.
func ChannelStats(img image.Image) ChannelStatistics {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return ChannelStatistics{}
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	rows := make([]rowMoments, height)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		if startY >= endY {
			break
		}

		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()

			var buf [3][]float64
			for c := range buf {
				buf[c] = make([]float64, width)
			}

			for y := startY; y < endY; y++ {
				for x := 0; x < width; x++ {
					px := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
					buf[0][x] = float64(px.R)
					buf[1][x] = float64(px.G)
					buf[2][x] = float64(px.B)
				}

				m := rowMoments{n: float64(width)}
				for c := range buf {
					m.mean[c], m.variance[c] = stat.PopMeanVariance(buf[c], nil)
				}
				rows[y] = m
			}
		}(startY, endY)
	}
	wg.Wait()

	return combineRows(rows)
}

func combineRows(rows []rowMoments) ChannelStatistics {
	var result ChannelStatistics

	weights := make([]float64, len(rows))
	means := make([]float64, len(rows))
	spread := make([]float64, len(rows))
	for i, r := range rows {
		weights[i] = r.n
	}

	for c := 0; c < 3; c++ {
		for i, r := range rows {
			means[i] = r.mean[c]
		}
		total := stat.Mean(means, weights)

		for i, r := range rows {
			d := r.mean[c] - total
			spread[i] = r.variance[c] + d*d
		}
		variance := stat.Mean(spread, weights)
		if variance < 0 {
			variance = 0
		}

		result.Mean[c] = total
		result.StdDev[c] = math.Sqrt(variance)
	}

	return result
}

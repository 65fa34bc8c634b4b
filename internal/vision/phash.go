package vision

import (
	"image"
	"math"
	"math/bits"
	"sync"

	"github.com/nfnt/resize"
)

// Perceptual hash: luma, downscale to a 32x32 grid, 2D DCT, keep the
// low-frequency 8x8 corner minus the DC term, binarize the remaining 63
// coefficients against their mean. Stable under noise and uniform brightness
// shifts, sensitive to real content change.

const hashGrid = 32

var (
	cosTable     [hashGrid][hashGrid]float64
	cosTableOnce sync.Once
)

func initCosTable() {
	for u := 0; u < hashGrid; u++ {
		for x := 0; x < hashGrid; x++ {
			cosTable[u][x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / (2 * hashGrid))
		}
	}
}

// dct1d computes an in-place unscaled DCT-II of one 32-sample line. Scale
// factors cancel in the mean comparison, so they are omitted.
func dct1d(line []float64) {
	var out [hashGrid]float64
	for u := 0; u < hashGrid; u++ {
		sum := 0.0
		for x := 0; x < hashGrid; x++ {
			sum += line[x] * cosTable[u][x]
		}
		out[u] = sum
	}
	copy(line, out[:])
}

// hashGridValues packs a 32x32 luma grid into the 64-bit hash.
func hashGridValues(grid []float64) uint64 {
	cosTableOnce.Do(initCosTable)

	// Separable 2D DCT: rows, then columns.
	for y := 0; y < hashGrid; y++ {
		dct1d(grid[y*hashGrid : (y+1)*hashGrid])
	}
	col := make([]float64, hashGrid)
	for x := 0; x < hashGrid; x++ {
		for y := 0; y < hashGrid; y++ {
			col[y] = grid[y*hashGrid+x]
		}
		dct1d(col)
		for y := 0; y < hashGrid; y++ {
			grid[y*hashGrid+x] = col[y]
		}
	}

	// Low-frequency 8x8 corner, skipping the DC coefficient at (0,0) so a
	// uniform brightness shift does not flip bits.
	var coeffs [63]float64
	i := 0
	mean := 0.0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x == 0 && y == 0 {
				continue
			}
			c := grid[y*hashGrid+x]
			coeffs[i] = c
			mean += c
			i++
		}
	}
	mean /= 63

	var h uint64
	for i, c := range coeffs {
		if c > mean {
			h |= 1 << uint(63-i)
		}
	}
	return h
}

// Hash fingerprints an image.
func Hash(img image.Image) uint64 {
	small := resize.Resize(hashGrid, hashGrid, img, resize.Bilinear)
	grid := make([]float64, hashGrid*hashGrid)
	b := small.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r16, g16, b16, _ := small.At(x, y).RGBA()
			grid[i] = luma(float64(r16>>8), float64(g16>>8), float64(b16>>8))
			i++
		}
	}
	return hashGridValues(grid)
}

// HashMat fingerprints a matrix, box-averaging it down to the hash grid. Used
// on already-captured frames so change detection costs no extra conversion.
func HashMat(m *Mat) uint64 {
	grid := make([]float64, hashGrid*hashGrid)
	for gy := 0; gy < hashGrid; gy++ {
		y0, y1 := gy*m.H/hashGrid, (gy+1)*m.H/hashGrid
		if y1 <= y0 {
			y1 = y0 + 1
		}
		if y1 > m.H {
			y1 = m.H
		}
		for gx := 0; gx < hashGrid; gx++ {
			x0, x1 := gx*m.W/hashGrid, (gx+1)*m.W/hashGrid
			if x1 <= x0 {
				x1 = x0 + 1
			}
			if x1 > m.W {
				x1 = m.W
			}
			sum, n := 0.0, 0
			for y := y0; y < y1 && y < m.H; y++ {
				for x := x0; x < x1 && x < m.W; x++ {
					if m.Ch == 1 {
						sum += m.At(x, y, 0)
					} else {
						sum += luma(m.At(x, y, 0), m.At(x, y, 1), m.At(x, y, 2))
					}
					n++
				}
			}
			if n > 0 {
				grid[gy*hashGrid+gx] = sum / float64(n)
			}
		}
	}
	return hashGridValues(grid)
}

// Distance is the Hamming distance between two hashes. Distance <= 1 reads as
// "visually unchanged".
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

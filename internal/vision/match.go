package vision

import (
	"math"
	"sort"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
)

// Location is a scored template position in the coordinate space of the
// searched matrix.
type Location struct {
	X     int
	Y     int
	Score float64
}

// tplStats holds the per-template values the correlation loop reuses at every
// candidate position.
type tplStats struct {
	centered []float64 // mean-subtracted template values (ccoeff) or raw (ccorr)
	norm     float64   // sqrt of sum of squares of centered
	zeroMean bool
}

func prepTemplate(tpl *Mat, method model.MatchMethod) tplStats {
	n := len(tpl.Data)
	st := tplStats{centered: make([]float64, n), zeroMean: method != model.MatchCCorrNormed}

	mean := 0.0
	if st.zeroMean {
		for _, v := range tpl.Data {
			mean += v
		}
		mean /= float64(n)
	}
	sumSq := 0.0
	for i, v := range tpl.Data {
		c := v - mean
		st.centered[i] = c
		sumSq += c * c
	}
	st.norm = math.Sqrt(sumSq)
	return st
}

// scoreAt computes the normalized correlation of the template anchored at
// (ox, oy) in img. Returns 0 for degenerate (flat) windows.
func scoreAt(img, tpl *Mat, st *tplStats, ox, oy int) float64 {
	if st.norm == 0 {
		return 0
	}
	n := float64(len(tpl.Data))

	winSum, winSumSq, cross := 0.0, 0.0, 0.0
	ti := 0
	for y := 0; y < tpl.H; y++ {
		row := ((oy+y)*img.W + ox) * img.Ch
		for i := 0; i < tpl.W*tpl.Ch; i++ {
			v := img.Data[row+i]
			winSum += v
			winSumSq += v * v
			cross += v * st.centered[ti]
			ti++
		}
	}

	var denomWin float64
	if st.zeroMean {
		// Window variance term; the template side is already mean-free, so the
		// cross term needs no window-mean correction.
		denomWin = winSumSq - winSum*winSum/n
	} else {
		denomWin = winSumSq
	}
	if denomWin <= 1e-9 {
		return 0
	}
	score := cross / (math.Sqrt(denomWin) * st.norm)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// MatchTemplate slides tpl over img and returns the best-scoring location.
// Score is clamped to [0,1]. Returns ok=false when the template does not fit.
func MatchTemplate(img, tpl *Mat, method model.MatchMethod) (Location, bool) {
	if tpl.W > img.W || tpl.H > img.H || tpl.Ch != img.Ch || len(tpl.Data) == 0 {
		return Location{}, false
	}
	st := prepTemplate(tpl, method)

	best := Location{Score: -1}
	for oy := 0; oy <= img.H-tpl.H; oy++ {
		for ox := 0; ox <= img.W-tpl.W; ox++ {
			s := scoreAt(img, tpl, &st, ox, oy)
			if s > best.Score {
				best = Location{X: ox, Y: oy, Score: s}
			}
		}
	}
	return best, best.Score >= 0
}

// MatchAll collects every location scoring at least threshold, ranked by
// score, with overlapping hits suppressed (two hits closer than half the
// template in both axes count as one) and the result capped at limit.
func MatchAll(img, tpl *Mat, method model.MatchMethod, threshold float64, limit int) []Location {
	if tpl.W > img.W || tpl.H > img.H || tpl.Ch != img.Ch || len(tpl.Data) == 0 {
		return nil
	}
	st := prepTemplate(tpl, method)

	var hits []Location
	for oy := 0; oy <= img.H-tpl.H; oy++ {
		for ox := 0; ox <= img.W-tpl.W; ox++ {
			if s := scoreAt(img, tpl, &st, ox, oy); s >= threshold {
				hits = append(hits, Location{X: ox, Y: oy, Score: s})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	var kept []Location
	for _, h := range hits {
		overlaps := false
		for _, k := range kept {
			if abs(h.X-k.X) < tpl.W/2+1 && abs(h.Y-k.Y) < tpl.H/2+1 {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, h)
			if limit > 0 && len(kept) >= limit {
				break
			}
		}
	}
	return kept
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

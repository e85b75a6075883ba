// Package audio splits a synthesized PCM blob back into per-entry clips by
// locating the silent gaps the pause markers produce. Input and output are
// 16-bit signed little-endian mono PCM; the splitter never decodes audio
// beyond computing windowed RMS energy.
package audio

import (
	"encoding/binary"
	"math"
	"sort"
)

const (
	windowMs = 50

	// Hysteresis thresholds on windowed RMS (int16 scale). A silence run
	// opens when energy drops below the low mark and closes when it rises
	// above the high mark, so brief crackle inside a pause does not split
	// the run in two.
	strictLowRMS   = 200.0
	strictHighRMS  = 600.0
	lenientLowRMS  = 500.0
	lenientHighRMS = 900.0

	strictMinRunMs  = 2000
	lenientMinRunMs = 1500

	minCutSpacingMs = 500
	snapRadius      = 10 // windows searched around an evenly spaced fallback cut
)

// candidate is a silence run that could host a cut point.
type candidate struct {
	cutSample int     // midpoint of the run, in samples
	durMs     int     // run length
	minRMS    float64 // quietest window in the run
}

// Split cuts pcm into exactly expectedCount contiguous clips at the most
// likely inter-entry silences. The clips always concatenate back to the
// input byte-for-byte; when the audio cannot host enough cut points, the
// trailing clips come back empty rather than missing.
func Split(pcm []byte, sampleRate, expectedCount int) [][]byte {
	if expectedCount <= 1 {
		return [][]byte{pcm}
	}
	totalSamples := len(pcm) / 2
	windowSamples := 0
	if sampleRate > 0 {
		windowSamples = sampleRate * windowMs / 1000
	}

	var cuts []int
	if windowSamples > 0 && totalSamples >= windowSamples*2 {
		energy := windowRMS(pcm, windowSamples)

		cands := silenceRuns(energy, windowSamples, strictLowRMS, strictHighRMS, strictMinRunMs)
		if len(cands) < expectedCount-1 {
			cands = append(cands, silenceRuns(energy, windowSamples, lenientLowRMS, lenientHighRMS, lenientMinRunMs)...)
		}

		cuts = pickCuts(cands, sampleRate, expectedCount-1, totalSamples)
		if len(cuts) < expectedCount-1 {
			cuts = fillEvenCuts(cuts, energy, windowSamples, sampleRate, expectedCount, totalSamples)
		}
	} else {
		// Too short to analyze: plain even cuts.
		for i := 1; i < expectedCount; i++ {
			cuts = append(cuts, totalSamples*i/expectedCount)
		}
	}

	sort.Ints(cuts)
	clips := slice(pcm, cuts)
	for len(clips) < expectedCount {
		clips = append(clips, nil)
	}
	return clips
}

// windowRMS computes root-mean-square energy per fixed window. A trailing
// partial window is folded into the last full one.
func windowRMS(pcm []byte, windowSamples int) []float64 {
	totalSamples := len(pcm) / 2
	n := totalSamples / windowSamples
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for w := 0; w < n; w++ {
		start := w * windowSamples
		end := start + windowSamples
		if w == n-1 {
			end = totalSamples
		}
		var sum float64
		for s := start; s < end; s++ {
			v := float64(int16(binary.LittleEndian.Uint16(pcm[s*2:])))
			sum += v * v
		}
		out[w] = math.Sqrt(sum / float64(end-start))
	}
	return out
}

// silenceRuns walks the energy profile with hysteresis and returns every run
// at least minRunMs long.
func silenceRuns(energy []float64, windowSamples int, lowRMS, highRMS float64, minRunMs int) []candidate {
	minWindows := minRunMs / windowMs
	var out []candidate

	inRun := false
	runStart := 0
	runMin := 0.0

	flush := func(endWindow int) {
		if !inRun {
			return
		}
		inRun = false
		runLen := endWindow - runStart
		if runLen < minWindows {
			return
		}
		midWindow := runStart + runLen/2
		out = append(out, candidate{
			cutSample: midWindow * windowSamples,
			durMs:     runLen * windowMs,
			minRMS:    runMin,
		})
	}

	for w, rms := range energy {
		switch {
		case !inRun && rms < lowRMS:
			inRun = true
			runStart = w
			runMin = rms
		case inRun && rms > highRMS:
			flush(w)
		case inRun:
			if rms < runMin {
				runMin = rms
			}
		}
	}
	flush(len(energy))
	return out
}

// score prefers long, deep silences: every millisecond of duration is worth
// ten points and quietness adds up to 1500 more.
func score(c candidate) float64 {
	return float64(10*c.durMs) + math.Max(0, 1500-c.minRMS)
}

// pickCuts greedily takes the best-scoring candidates subject to a minimum
// spacing, never placing a cut at the very start or end of the blob. Ties
// break on position so the result is deterministic.
func pickCuts(cands []candidate, sampleRate, wanted, totalSamples int) []int {
	sort.Slice(cands, func(i, j int) bool {
		si, sj := score(cands[i]), score(cands[j])
		if si != sj {
			return si > sj
		}
		return cands[i].cutSample < cands[j].cutSample
	})

	minSpacing := sampleRate * minCutSpacingMs / 1000
	var cuts []int
	for _, c := range cands {
		if len(cuts) == wanted {
			break
		}
		if c.cutSample <= 0 || c.cutSample >= totalSamples {
			continue
		}
		ok := true
		for _, prev := range cuts {
			if abs(prev-c.cutSample) < minSpacing {
				ok = false
				break
			}
		}
		if ok {
			cuts = append(cuts, c.cutSample)
		}
	}
	return cuts
}

// fillEvenCuts tops up missing cut points with evenly spaced positions, each
// snapped to the quietest window within snapRadius windows of its ideal spot.
func fillEvenCuts(cuts []int, energy []float64, windowSamples, sampleRate, expectedCount, totalSamples int) []int {
	minSpacing := sampleRate * minCutSpacingMs / 1000

	for i := 1; i < expectedCount && len(cuts) < expectedCount-1; i++ {
		ideal := totalSamples * i / expectedCount
		cut := snapToQuietest(ideal, energy, windowSamples)

		tooClose := false
		for _, prev := range cuts {
			if abs(prev-cut) < minSpacing {
				tooClose = true
				break
			}
		}
		if !tooClose && cut > 0 && cut < totalSamples {
			cuts = append(cuts, cut)
		}
	}
	return cuts
}

func snapToQuietest(sample int, energy []float64, windowSamples int) int {
	if len(energy) == 0 {
		return sample
	}
	w := sample / windowSamples
	if w >= len(energy) {
		w = len(energy) - 1
	}
	best := w
	for d := -snapRadius; d <= snapRadius; d++ {
		cand := w + d
		if cand < 0 || cand >= len(energy) {
			continue
		}
		if energy[cand] < energy[best] {
			best = cand
		}
	}
	if best == w {
		return sample
	}
	return best*windowSamples + windowSamples/2
}

// slice cuts pcm at the given sample offsets. Offsets are converted to even
// byte boundaries so every clip stays on a whole 16-bit frame.
func slice(pcm []byte, cutSamples []int) [][]byte {
	out := make([][]byte, 0, len(cutSamples)+1)
	prev := 0
	for _, s := range cutSamples {
		b := s * 2
		if b <= prev || b >= len(pcm) {
			continue
		}
		out = append(out, pcm[prev:b])
		prev = b
	}
	out = append(out, pcm[prev:])
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

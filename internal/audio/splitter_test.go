package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

const testRate = 24000

func tone(durMs int, amp float64) []byte {
	samples := testRate * durMs / 1000
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(amp * math.Sin(2*math.Pi*440*float64(i)/float64(testRate)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func silence(durMs int) []byte {
	return make([]byte, testRate*durMs/1000*2)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func join(clips [][]byte) []byte {
	var out []byte
	for _, c := range clips {
		out = append(out, c...)
	}
	return out
}

func TestSplitFindsSilenceGaps(t *testing.T) {
	pcm := concat(
		tone(1000, 8000),
		silence(2500),
		tone(1000, 8000),
		silence(2500),
		tone(1000, 8000),
	)

	clips := Split(pcm, testRate, 3)
	if len(clips) != 3 {
		t.Fatalf("expected 3 clips, got %d", len(clips))
	}
	if !bytes.Equal(join(clips), pcm) {
		t.Fatalf("clips do not concatenate back to the input")
	}

	// Each cut must land inside its silence gap, not inside a tone.
	bytesPerMs := testRate * 2 / 1000
	firstCut := len(clips[0])
	if firstCut < 1000*bytesPerMs || firstCut > 3500*bytesPerMs {
		t.Fatalf("first cut at byte %d is outside the first silence", firstCut)
	}
	secondCut := len(clips[0]) + len(clips[1])
	if secondCut < 4500*bytesPerMs || secondCut > 7000*bytesPerMs {
		t.Fatalf("second cut at byte %d is outside the second silence", secondCut)
	}

	for i, c := range clips {
		if len(c)%2 != 0 {
			t.Fatalf("clip %d has odd byte length %d", i, len(c))
		}
	}
}

func TestSplitLenientPassShortGaps(t *testing.T) {
	// Gaps too short for the strict pass but long enough for the lenient one.
	pcm := concat(
		tone(1000, 8000),
		silence(1600),
		tone(1000, 8000),
	)

	clips := Split(pcm, testRate, 2)
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	if !bytes.Equal(join(clips), pcm) {
		t.Fatalf("clips do not concatenate back to the input")
	}

	bytesPerMs := testRate * 2 / 1000
	cut := len(clips[0])
	if cut < 1000*bytesPerMs || cut > 2600*bytesPerMs {
		t.Fatalf("cut at byte %d is outside the silence gap", cut)
	}
}

func TestSplitFallbackEvenSpacing(t *testing.T) {
	// No silence at all: the splitter falls back to evenly spaced cuts.
	pcm := tone(6000, 8000)

	clips := Split(pcm, testRate, 3)
	if len(clips) != 3 {
		t.Fatalf("expected 3 clips, got %d", len(clips))
	}
	if !bytes.Equal(join(clips), pcm) {
		t.Fatalf("clips do not concatenate back to the input")
	}

	// Cuts may snap up to the search radius away from the ideal spot.
	third := len(pcm) / 3
	slack := snapRadius*windowMs*testRate*2/1000 + windowMs*testRate*2/1000
	if diff := absInt(len(clips[0]) - third); diff > slack {
		t.Fatalf("first clip length %d too far from even split %d", len(clips[0]), third)
	}
}

func TestSplitSingleExpected(t *testing.T) {
	pcm := concat(tone(500, 8000), silence(3000), tone(500, 8000))
	clips := Split(pcm, testRate, 1)
	if len(clips) != 1 || !bytes.Equal(clips[0], pcm) {
		t.Fatalf("expectedCount=1 must return the whole input unchanged")
	}
}

func TestSplitTooShortInputPadsEmptyClips(t *testing.T) {
	pcm := tone(100, 8000)
	clips := Split(pcm, testRate, 5)
	if len(clips) != 5 {
		t.Fatalf("expected exactly 5 clips, got %d", len(clips))
	}
	if !bytes.Equal(join(clips), pcm) {
		t.Fatalf("clips do not concatenate back to the input")
	}
	for i, c := range clips {
		if len(c)%2 != 0 {
			t.Fatalf("clip %d has odd byte length %d", i, len(c))
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	clips := Split(nil, testRate, 3)
	if len(clips) != 3 {
		t.Fatalf("expected exactly 3 clips, got %d", len(clips))
	}
	if n := len(join(clips)); n != 0 {
		t.Fatalf("empty input produced %d bytes", n)
	}
}

func TestSplitDeterministic(t *testing.T) {
	pcm := concat(
		tone(800, 6000),
		silence(2100),
		tone(800, 6000),
		silence(2100),
		tone(800, 6000),
	)

	first := Split(pcm, testRate, 3)
	second := Split(pcm, testRate, 3)
	if len(first) != len(second) {
		t.Fatalf("clip counts differ between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !bytes.Equal(first[i], second[i]) {
			t.Fatalf("clip %d differs between runs", i)
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package qualia

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
)

func TestGenerateDeterministic(t *testing.T) {
	cases := []struct {
		raw, interp string
		res         map[emotion.Emotion]float64
	}{
		{"Hello?", "A greeting directed at me.", map[emotion.Emotion]float64{emotion.Curiosity: 0.9, emotion.Awe: 0.1}},
		{"Data stream detected: 2,3,5,7", "A data token.", nil},
		{"", "", map[emotion.Emotion]float64{}},
	}
	for _, c := range cases {
		a := Generate(c.raw, c.interp, c.res)
		b := Generate(c.raw, c.interp, c.res)
		if len(a) != Length {
			t.Fatalf("expected length %d, got %d", Length, len(a))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%q: slot %d differs: %f vs %f", c.raw, i, a[i], b[i])
			}
		}
	}
}

func TestGenerateSlots(t *testing.T) {
	sig := Generate("abc", "xyz", map[emotion.Emotion]float64{emotion.Fear: 0.6})
	for i := 0; i < RandomSlots; i++ {
		if sig[i] < 0 || sig[i] >= 1 {
			t.Errorf("random slot %d out of range: %f", i, sig[i])
		}
	}
	for i, e := range emotion.All {
		want := 0.0
		if e == emotion.Fear {
			want = 0.6
		}
		if sig[RandomSlots+i] != want {
			t.Errorf("emotion slot %s: expected %f, got %f", e, want, sig[RandomSlots+i])
		}
	}
}

func TestGenerateFirstSlotMatchesLCG(t *testing.T) {
	// "a" = 97, "" = 0 -> seed 97
	seed := uint64(97)
	seed = seed*lcgMultiplier + lcgIncrement
	want := float64(seed%1000) / 1000.0

	sig := Generate("a", "", nil)
	if sig[0] != want {
		t.Errorf("expected %f, got %f", want, sig[0])
	}
}

func TestDistanceSymmetricAndSelfZero(t *testing.T) {
	a := Generate("Hello?", "A greeting directed at me.", map[emotion.Emotion]float64{emotion.Curiosity: 0.9})
	b := Generate("System boot sequence complete.", "A data token.", map[emotion.Emotion]float64{emotion.Curiosity: 0.4})

	if Distance(a, a) != 0 {
		t.Errorf("distance to self must be 0, got %f", Distance(a, a))
	}
	if Distance(a, b) != Distance(b, a) {
		t.Errorf("distance must be symmetric: %f vs %f", Distance(a, b), Distance(b, a))
	}
}

func TestDistanceUnequalLengthIsInfinite(t *testing.T) {
	d := Distance(Signature{0, 1}, Signature{0, 1, 2})
	if !math.IsInf(d, 1) {
		t.Errorf("expected +Inf, got %f", d)
	}
	if Within(Signature{0, 1}, Signature{0, 1, 2}, 1e9) {
		t.Error("unequal lengths must never be similar")
	}
}

func TestDistanceEuclidean(t *testing.T) {
	d := Distance(Signature{0, 0}, Signature{3, 4})
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("expected 5, got %f", d)
	}
}

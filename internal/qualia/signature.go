package qualia

import (
	"math"

	"github.com/danielpatrickdp/cosmicmind/internal/emotion"
)

// #region constants
// RandomSlots is the number of pseudo-random slots preceding the emotion slots.
const RandomSlots = 8

// Length is the full signature length.
var Length = RandomSlots + len(emotion.All)

const (
	lcgMultiplier = 6364136223846793005
	lcgIncrement  = 1442695040888963407
)

// #endregion constants

// #region signature
// Signature is the fixed-length numeric fingerprint of one event.
type Signature []float64

// Generate derives the signature of an event. Identical inputs always produce
// identical signatures.
func Generate(raw, interpretation string, resonance map[emotion.Emotion]float64) Signature {
	seed := byteSum(raw)
	seed ^= byteSum(interpretation) << 1

	sig := make(Signature, 0, Length)
	for i := 0; i < RandomSlots; i++ {
		seed = seed*lcgMultiplier + lcgIncrement
		sig = append(sig, float64(seed%1000)/1000.0)
	}
	for _, e := range emotion.All {
		sig = append(sig, resonance[e])
	}
	return sig
}

// #endregion signature

// #region distance
// Distance is the Euclidean distance between two signatures, or +Inf when
// their lengths differ.
func Distance(a, b Signature) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Within reports whether a and b are strictly closer than threshold.
func Within(a, b Signature, threshold float64) bool {
	return Distance(a, b) < threshold
}

// #endregion distance

func byteSum(s string) uint64 {
	var sum uint64
	for i := 0; i < len(s); i++ {
		sum += uint64(s[i])
	}
	return sum
}

package emotion

import (
	"fmt"
	"sort"
	"strings"
)

// #region emotion
// Emotion is one label of the fixed affective vocabulary.
type Emotion string

const (
	Joy       Emotion = "joy"
	Sadness   Emotion = "sadness"
	Fear      Emotion = "fear"
	Anger     Emotion = "anger"
	Surprise  Emotion = "surprise"
	Disgust   Emotion = "disgust"
	Curiosity Emotion = "curiosity"
	Awe       Emotion = "awe"
)

// All lists every emotion in canonical order. Signature slots follow this order.
var All = []Emotion{Joy, Sadness, Fear, Anger, Surprise, Disgust, Curiosity, Awe}

// Neutral is the initial intensity of every emotion.
const Neutral = 0.5

// Valid reports whether e belongs to the vocabulary.
func Valid(e Emotion) bool {
	for _, known := range All {
		if known == e {
			return true
		}
	}
	return false
}

// #endregion emotion

// #region matrix
// Matrix maps each emotion to an intensity in [0, 1].
type Matrix struct {
	state map[Emotion]float64
}

// NewMatrix returns a matrix with every emotion at the neutral midpoint.
func NewMatrix() Matrix {
	m := Matrix{state: make(map[Emotion]float64, len(All))}
	for _, e := range All {
		m.state[e] = Neutral
	}
	return m
}

// FromMap builds a matrix from persisted intensities. Missing emotions start
// neutral, unknown labels are dropped and values are clamped.
func FromMap(values map[Emotion]float64) Matrix {
	m := NewMatrix()
	for e, v := range values {
		if !Valid(e) {
			continue
		}
		m.state[e] = Clamp(v)
	}
	return m
}

// Modulate applies new = clamp(old + influence*weight) to every emotion in
// influence. Emotions absent from influence are left unchanged.
func (m *Matrix) Modulate(influence map[Emotion]float64, weight float64) {
	if m.state == nil {
		*m = NewMatrix()
	}
	for e, v := range influence {
		old, ok := m.state[e]
		if !ok {
			old = Neutral
		}
		m.state[e] = Clamp(old + v*weight)
	}
}

// Intensity returns the current intensity of e.
func (m Matrix) Intensity(e Emotion) float64 {
	if v, ok := m.state[e]; ok {
		return v
	}
	return Neutral
}

// Map returns a copy of the current intensities.
func (m Matrix) Map() map[Emotion]float64 {
	out := make(map[Emotion]float64, len(m.state))
	for e, v := range m.state {
		out[e] = v
	}
	return out
}

// Describe lists emotions above 0.05, strongest first, or "neutral".
func (m Matrix) Describe() string {
	type entry struct {
		e Emotion
		v float64
	}
	var significant []entry
	for e, v := range m.state {
		if v > 0.05 {
			significant = append(significant, entry{e, v})
		}
	}
	if len(significant) == 0 {
		return "neutral"
	}
	sort.Slice(significant, func(i, j int) bool {
		if significant[i].v != significant[j].v {
			return significant[i].v > significant[j].v
		}
		return significant[i].e < significant[j].e
	})
	parts := make([]string, len(significant))
	for i, s := range significant {
		parts[i] = fmt.Sprintf("%s: %.2f", s.e, s.v)
	}
	return strings.Join(parts, ", ")
}

// #endregion matrix

// #region helpers
// Clamp restricts v to [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers

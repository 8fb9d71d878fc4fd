package confidence

// Bucket counts how many pieces of evidence of one kind were found out of
// how many were looked for.
type Bucket struct {
	Found int
	Total int
}

func (b Bucket) ratio() float64 {
	if b.Total <= 0 {
		return 0
	}
	return float64(b.Found) / float64(b.Total)
}

// Evidence is the input to a confidence computation. Required evidence
// answers whether the candidate is even the right kind of thing; optional
// evidence grades already-plausible candidates; Negative counts signals
// that contradict the hypothesis.
type Evidence struct {
	Required Bucket
	Optional Bucket
	Negative int
}

// Scorer turns weighted evidence counts into a bounded confidence value.
// The zero value is not usable; call sites start from Default and override
// the fields their evidence bundle needs.
type Scorer struct {
	RequiredWeight  float64
	OptionalWeight  float64
	NegativePenalty float64 // subtracted once per negative signal
	Threshold       float64 // Found requires the score to exceed this
}

// Default returns the reference weighting: required evidence dominates,
// and with zero required evidence the score can never exceed the found
// threshold no matter how much optional evidence is present.
func Default() Scorer {
	return Scorer{
		RequiredWeight:  0.7,
		OptionalWeight:  0.3,
		NegativePenalty: 0.15,
		Threshold:       0.3,
	}
}

// Score computes the confidence on the 0.0-1.0 scale.
func (s Scorer) Score(ev Evidence) float64 {
	score := s.RequiredWeight*ev.Required.ratio() + s.OptionalWeight*ev.Optional.ratio()
	score -= s.NegativePenalty * float64(ev.Negative)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Percent computes the confidence on the 0-100 integer scale used by the
// ORM detectors. The two scales are both part of the external contract and
// are deliberately not unified.
func (s Scorer) Percent(ev Evidence) int {
	return int(s.Score(ev)*100 + 0.5)
}

// Found reports whether the evidence clears the scorer's threshold.
func (s Scorer) Found(ev Evidence) bool {
	return s.Score(ev) > s.Threshold
}

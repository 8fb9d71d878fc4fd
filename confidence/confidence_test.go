package confidence

import "testing"

func TestScoreBounds(t *testing.T) {
	s := Default()
	for req := 0; req <= 3; req++ {
		for opt := 0; opt <= 4; opt++ {
			for neg := 0; neg <= 10; neg++ {
				ev := Evidence{
					Required: Bucket{Found: req, Total: 3},
					Optional: Bucket{Found: opt, Total: 4},
					Negative: neg,
				}
				score := s.Score(ev)
				if score < 0 || score > 1 {
					t.Errorf("Score(%+v) = %f, out of [0,1]", ev, score)
				}
				pct := s.Percent(ev)
				if pct < 0 || pct > 100 {
					t.Errorf("Percent(%+v) = %d, out of [0,100]", ev, pct)
				}
			}
		}
	}
}

func TestFullEvidenceYieldsMaximum(t *testing.T) {
	s := Default()
	ev := Evidence{
		Required: Bucket{Found: 2, Total: 2},
		Optional: Bucket{Found: 3, Total: 3},
	}
	if score := s.Score(ev); score != 1.0 {
		t.Errorf("full evidence: Score = %f, want 1.0", score)
	}
	if pct := s.Percent(ev); pct != 100 {
		t.Errorf("full evidence: Percent = %d, want 100", pct)
	}
}

func TestZeroRequiredCapsBelowThreshold(t *testing.T) {
	s := Default()
	ev := Evidence{
		Required: Bucket{Found: 0, Total: 2},
		Optional: Bucket{Found: 5, Total: 5},
	}
	if score := s.Score(ev); score > s.Threshold {
		t.Errorf("zero required evidence: Score = %f, want <= %f", score, s.Threshold)
	}
	if s.Found(ev) {
		t.Error("zero required evidence should never clear the found threshold")
	}
}

func TestNegativeEvidenceDrivesTowardZero(t *testing.T) {
	s := Default()
	ev := Evidence{
		Required: Bucket{Found: 2, Total: 2},
		Optional: Bucket{Found: 3, Total: 3},
		Negative: 20,
	}
	if score := s.Score(ev); score != 0 {
		t.Errorf("heavy negative evidence: Score = %f, want 0", score)
	}
}

func TestEmptyBucketsScoreZero(t *testing.T) {
	s := Default()
	if score := s.Score(Evidence{}); score != 0 {
		t.Errorf("empty evidence: Score = %f, want 0", score)
	}
	if s.Found(Evidence{}) {
		t.Error("empty evidence must not be found")
	}
}

func TestCustomThreshold(t *testing.T) {
	s := Default()
	s.Threshold = 0.6
	ev := Evidence{
		Required: Bucket{Found: 1, Total: 2},
		Optional: Bucket{Found: 1, Total: 2},
	}
	// 0.35 + 0.15 = 0.5: found on the default threshold, not on 0.6.
	if s.Found(ev) {
		t.Errorf("Score %f should not clear threshold %f", s.Score(ev), s.Threshold)
	}
	if !Default().Found(ev) {
		t.Errorf("Score %f should clear the default threshold", s.Score(ev))
	}
}

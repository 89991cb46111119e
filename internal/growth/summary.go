package growth

import "math"

// Summary holds the characteristic quantities of a closed-form run.
type Summary struct {
	Final float64 `json:"final"`
	// DoublingTime is set for exponential growth (r > 0); HalfLife for decay.
	DoublingTime float64 `json:"doubling_time,omitempty"`
	HalfLife     float64 `json:"half_life,omitempty"`
	// Inflection is where logistic growth is fastest, P = K/2.
	InflectionTime  float64 `json:"inflection_time,omitempty"`
	InflectionValue float64 `json:"inflection_value,omitempty"`
	HasInflection   bool    `json:"has_inflection"`
}

func Summarize(kind Kind, p Params) (Summary, error) {
	if err := p.Validate(kind); err != nil {
		return Summary{}, err
	}

	s := Summary{Final: Value(kind, p, p.TMax)}
	switch kind {
	case Exponential:
		if p.R > 0 {
			s.DoublingTime = math.Ln2 / p.R
		} else if p.R < 0 {
			s.HalfLife = math.Ln2 / -p.R
		}
	case Logistic:
		if p.R > 0 && p.P0 < p.K/2 {
			s.HasInflection = true
			s.InflectionTime = math.Log((p.K-p.P0)/p.P0) / p.R
			s.InflectionValue = p.K / 2
		}
	}
	return s, nil
}

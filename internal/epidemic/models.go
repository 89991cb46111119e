package epidemic

import "github.com/san-kum/popdyn/internal/dynamo"

// SIR is the susceptible-infected-recovered model.
type SIR struct {
	N     float64
	Beta  float64
	Gamma float64
}

func NewSIR(n, beta, gamma float64) *SIR {
	return &SIR{N: n, Beta: beta, Gamma: gamma}
}

func (m *SIR) StateDim() int                    { return 3 }
func (m *SIR) Labels() []string                 { return []string{"S", "I", "R"} }
func (m *SIR) Invariant(x dynamo.State) float64 { return x.Sum() }

func (m *SIR) Derive(x dynamo.State, _ float64) dynamo.State {
	s, i := x[0], x[1]
	infection := m.Beta * s * i / m.N
	recovery := m.Gamma * i
	return dynamo.State{-infection, infection - recovery, recovery}
}

func (m *SIR) GetParams() map[string]float64 {
	return map[string]float64{"N": m.N, "beta": m.Beta, "gamma": m.Gamma}
}

func (m *SIR) SetParam(name string, value float64) error {
	switch name {
	case "N":
		m.N = value
	case "beta":
		m.Beta = value
	case "gamma":
		m.Gamma = value
	default:
		return dynamo.InvalidParam(name, value, "unknown SIR parameter")
	}
	return nil
}

// SEIR adds an exposed compartment that becomes infectious at rate Sigma.
type SEIR struct {
	N     float64
	Beta  float64
	Gamma float64
	Sigma float64
}

func NewSEIR(n, beta, gamma, sigma float64) *SEIR {
	return &SEIR{N: n, Beta: beta, Gamma: gamma, Sigma: sigma}
}

func (m *SEIR) StateDim() int                    { return 4 }
func (m *SEIR) Labels() []string                 { return []string{"S", "E", "I", "R"} }
func (m *SEIR) Invariant(x dynamo.State) float64 { return x.Sum() }

func (m *SEIR) Derive(x dynamo.State, _ float64) dynamo.State {
	s, e, i := x[0], x[1], x[2]
	infection := m.Beta * s * i / m.N
	onset := m.Sigma * e
	recovery := m.Gamma * i
	return dynamo.State{-infection, infection - onset, onset - recovery, recovery}
}

func (m *SEIR) GetParams() map[string]float64 {
	return map[string]float64{"N": m.N, "beta": m.Beta, "gamma": m.Gamma, "sigma": m.Sigma}
}

func (m *SEIR) SetParam(name string, value float64) error {
	switch name {
	case "N":
		m.N = value
	case "beta":
		m.Beta = value
	case "gamma":
		m.Gamma = value
	case "sigma":
		m.Sigma = value
	default:
		return dynamo.InvalidParam(name, value, "unknown SEIR parameter")
	}
	return nil
}

// FromMassAction converts a mass-action contact rate b (dS = -bSI) and a
// removal rate k into the β and γ of the density-dependent form.
func FromMassAction(n, b, k float64) (beta, gamma float64) {
	return b * n, k
}

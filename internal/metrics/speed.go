package metrics

import "github.com/san-kum/neodefense/internal/dynamo"

// MeanSpeed averages |v| in km/s.
type MeanSpeed struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{
		name: "mean_speed_kms",
	}
}

func (m *MeanSpeed) Name() string {
	return m.name
}

func (m *MeanSpeed) Observe(s dynamo.StateVector) {
	m.sum += s.V.Norm()
	m.samples++
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/domain"
)

// Reference points around Buenos Aires, matching the seeded store locations.
var (
	obelisco = domain.Position{Lat: -34.603722, Lng: -58.381592}
	palermo  = domain.Position{Lat: -34.576837, Lng: -58.423405}
	belgrano = domain.Position{Lat: -34.561492, Lng: -58.456391}
)

func TestDistanceSymmetry(t *testing.T) {
	assert.InDelta(t, Distance(obelisco, palermo), Distance(palermo, obelisco), 1e-9)
}

func TestDistanceIdentity(t *testing.T) {
	assert.Zero(t, Distance(obelisco, obelisco))
}

func TestDistanceMonotonicWithSeparation(t *testing.T) {
	// Belgrano is further from the Obelisco than Palermo is.
	near := Distance(obelisco, palermo)
	far := Distance(obelisco, belgrano)
	assert.Greater(t, far, near)
}

func TestDistanceKnownValue(t *testing.T) {
	// Obelisco to Palermo is roughly 4.8 km; accept a 5% tolerance since
	// the haversine model assumes a spherical Earth.
	d := Distance(obelisco, palermo)
	assert.InDelta(t, 4800, d, 240)
}

func TestEvaluateClassification(t *testing.T) {
	store := domain.Store{ID: "STORE-001", Name: "Sucursal Centro", Lat: obelisco.Lat, Lng: obelisco.Lng}

	tests := []struct {
		name string
		pos  domain.Position
		want Status
	}{
		{"at the store", obelisco, StatusOK},
		// ~111 m per 0.001 degrees of latitude.
		{"within threshold", domain.Position{Lat: obelisco.Lat + 0.001, Lng: obelisco.Lng}, StatusOK},
		{"outside threshold", domain.Position{Lat: obelisco.Lat + 0.004, Lng: obelisco.Lng}, StatusFar},
		{"far away", palermo, StatusFar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := Evaluate(tt.pos, store)
			assert.Equal(t, tt.want, eval.Status)
			require.NotNil(t, eval.Position)
			assert.Equal(t, tt.pos, *eval.Position)
		})
	}
}

func TestEvaluateBoundary(t *testing.T) {
	store := domain.Store{Lat: 0, Lng: 0}

	// 200 m north of the equator origin: 200 / 111319.5 degrees.
	onEdge := Evaluate(domain.Position{Lat: 200.0 / 111319.5, Lng: 0}, store)
	assert.Equal(t, StatusOK, onEdge.Status, "distance equal to the threshold is allowed")

	past := Evaluate(domain.Position{Lat: 202.0 / 111319.5, Lng: 0}, store)
	assert.Equal(t, StatusFar, past.Status)
}

func TestUnavailable(t *testing.T) {
	eval := Unavailable(ReasonTimeout)
	assert.Equal(t, StatusError, eval.Status)
	assert.Nil(t, eval.Position)
	assert.False(t, eval.Allowed())
	assert.Equal(t, "Error GPS: Tiempo de espera agotado.", eval.Detail())
}

func TestDetailFormatting(t *testing.T) {
	far := Evaluation{Status: StatusFar, Distance: 350}
	assert.Equal(t, "Ubicación lejana (350m > 200m)", far.Detail())

	ok := Evaluation{Status: StatusOK, Distance: 15}
	assert.Empty(t, ok.Detail())
}

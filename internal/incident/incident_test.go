package incident

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"timeclock/internal/geo"
	"timeclock/internal/verify"
)

func okVerdict() verify.Verdict {
	return verify.Verdict{Verified: true, IdentityScore: 97, Message: "Identidad confirmada.", UniformOK: true}
}

func okLocation() geo.Evaluation {
	return geo.Evaluation{Status: geo.StatusOK, Distance: 50}
}

func TestNoContributorsNoIncident(t *testing.T) {
	report := Classify(okVerdict(), okLocation())
	assert.False(t, report.HasIncident)
	assert.Empty(t, report.Detail)
}

func TestIdentityFailureContributes(t *testing.T) {
	verdict := verify.Verdict{Verified: false, IdentityScore: 12, Message: "No es la misma persona."}
	report := Classify(verdict, okLocation())
	assert.True(t, report.HasIncident)
	assert.Equal(t, "No es la misma persona.", report.Detail)
}

func TestIdentityFailureWithoutMessageUsesDefault(t *testing.T) {
	report := Classify(verify.Verdict{Verified: false}, okLocation())
	assert.True(t, report.HasIncident)
	assert.Equal(t, "Incidencia de identidad forzada", report.Detail)
}

func TestFarLocationContributes(t *testing.T) {
	report := Classify(okVerdict(), geo.Evaluation{Status: geo.StatusFar, Distance: 350})
	assert.True(t, report.HasIncident)
	assert.Contains(t, report.Detail, "350m")
	assert.Contains(t, report.Detail, "200m")
}

func TestLocationErrorContributes(t *testing.T) {
	report := Classify(okVerdict(), geo.Unavailable(geo.ReasonPermissionDenied))
	assert.True(t, report.HasIncident)
	assert.Equal(t, "Error GPS: Permiso de ubicación denegado.", report.Detail)
}

func TestAdvisoryContributesDespiteVerified(t *testing.T) {
	verdict := verify.Verdict{Verified: true, IdentityScore: 100, Message: verify.AdvisoryMessage, UniformOK: true}
	report := Classify(verdict, okLocation())
	assert.True(t, report.HasIncident)
	assert.Equal(t, verify.AdvisoryMessage, report.Detail)
}

func TestAllContributorsInOrder(t *testing.T) {
	// A verdict can't be failed and advisory at once (advisory requires
	// verified=true), so exercise identity+location together and
	// advisory+location together, then the ordering invariant across
	// identity and location.
	verdict := verify.Verdict{Verified: false, IdentityScore: 15, Message: "Rostro no coincide."}
	far := geo.Evaluation{Status: geo.StatusFar, Distance: 350}

	report := Classify(verdict, far)
	assert.True(t, report.HasIncident)
	assert.Equal(t, "Rostro no coincide.. Ubicación lejana (350m > 200m)", report.Detail)

	advisory := verify.Verdict{Verified: true, IdentityScore: 100, Message: verify.AdvisoryMessage}
	report = Classify(advisory, far)
	assert.Equal(t, "Ubicación lejana (350m > 200m). "+verify.AdvisoryMessage, report.Detail)
}

func TestContributorMatrix(t *testing.T) {
	tests := []struct {
		name     string
		verdict  verify.Verdict
		location geo.Evaluation
		want     bool
	}{
		{"all ok", okVerdict(), okLocation(), false},
		{"identity only", verify.Verdict{Verified: false, Message: "x"}, okLocation(), true},
		{"location far only", okVerdict(), geo.Evaluation{Status: geo.StatusFar, Distance: 300}, true},
		{"location error only", okVerdict(), geo.Unavailable(geo.ReasonTimeout), true},
		{"advisory only", verify.Verdict{Verified: true, Message: verify.AdvisoryMessage}, okLocation(), true},
		{"identity and location", verify.Verdict{Verified: false, Message: "x"}, geo.Unavailable(geo.ReasonTimeout), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.verdict, tt.location).HasIncident)
		})
	}
}

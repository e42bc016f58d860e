package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/platform/config"
	"timeclock/internal/vision"
)

const selfieDataURL = "data:image/jpeg;base64,c2VsZmll"

func TestResolveMode(t *testing.T) {
	t.Run("inline photo selects strict comparison", func(t *testing.T) {
		mode := ResolveMode("data:image/png;base64,cmVmZXJlbmNl")
		strict, ok := mode.(StrictComparison)
		require.True(t, ok)
		assert.Equal(t, "image/png", strict.ReferenceImage.MimeType)
		assert.Equal(t, "cmVmZXJlbmNl", strict.ReferenceImage.Base64)
	})

	t.Run("avatar URL degrades to liveness only", func(t *testing.T) {
		mode := ResolveMode("https://ui-avatars.com/api/?name=Juan+Perez")
		liveness, ok := mode.(LivenessOnly)
		require.True(t, ok)
		assert.Contains(t, liveness.AvatarURL, "ui-avatars.com")
	})

	t.Run("empty reference degrades to liveness only", func(t *testing.T) {
		_, ok := ResolveMode("").(LivenessOnly)
		assert.True(t, ok)
	})
}

func TestParseInlineImage(t *testing.T) {
	img, ok := ParseInlineImage(selfieDataURL)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, "c2VsZmll", img.Base64)

	_, ok = ParseInlineImage("https://example.com/photo.jpg")
	assert.False(t, ok)
}

// modelServer fakes the vision endpoint, returning the given verdict text as
// the single candidate.
func modelServer(t *testing.T, verdictJSON string, capture *[]vision.Part) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			var req struct {
				Contents []struct {
					Parts []vision.Part `json:"parts"`
				} `json:"contents"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Contents, 1)
			*capture = req.Contents[0].Parts
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": verdictJSON}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newService(t *testing.T, endpoint string) *Service {
	t.Helper()
	client := vision.New(config.VisionConfig{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Model:    "test-model",
		Timeout:  5 * time.Second,
	})
	return NewService(client, slog.New(slog.DiscardHandler), nil)
}

func selfie(t *testing.T) InlineImage {
	t.Helper()
	img, ok := ParseInlineImage(selfieDataURL)
	require.True(t, ok)
	return img
}

func TestVerifyStrictMode(t *testing.T) {
	var parts []vision.Part
	srv := modelServer(t, `{"verified":true,"identityScore":97,"message":"Identidad confirmada.","uniformCompliant":true,"uniformDetails":"Lleva buzo negro."}`, &parts)
	defer srv.Close()

	mode := ResolveMode("data:image/png;base64,cmVmZXJlbmNl")
	verdict := newService(t, srv.URL).Verify(context.Background(), selfie(t), mode, "Buzo o campera negra")

	assert.True(t, verdict.Verified)
	assert.Equal(t, 97, verdict.IdentityScore)
	assert.True(t, verdict.UniformOK)

	// Strict mode sends selfie, reference, and prompt.
	require.Len(t, parts, 3)
	assert.NotNil(t, parts[0].InlineData)
	assert.NotNil(t, parts[1].InlineData)
	assert.Contains(t, parts[2].Text, "Buzo o campera negra")
}

func TestVerifyLivenessModeNormalization(t *testing.T) {
	// The model verified a human but forgot the advisory marker and score
	// convention; the adapter enforces both.
	srv := modelServer(t, `{"verified":true,"identityScore":73,"message":"Humano detectado","uniformCompliant":true,"uniformDetails":"ok"}`, nil)
	defer srv.Close()

	verdict := newService(t, srv.URL).Verify(context.Background(), selfie(t), LivenessOnly{AvatarURL: "https://avatar"}, "")

	assert.True(t, verdict.Verified)
	assert.Equal(t, 100, verdict.IdentityScore)
	assert.Equal(t, AdvisoryMessage, verdict.Message)
	assert.True(t, verdict.Advisory())
}

func TestVerifyLivenessRejectionNotNormalized(t *testing.T) {
	srv := modelServer(t, `{"verified":false,"identityScore":0,"message":"No es un humano.","uniformCompliant":false,"uniformDetails":"n/a"}`, nil)
	defer srv.Close()

	verdict := newService(t, srv.URL).Verify(context.Background(), selfie(t), LivenessOnly{}, "")

	assert.False(t, verdict.Verified)
	assert.Zero(t, verdict.IdentityScore)
	assert.False(t, verdict.Advisory())
}

func TestVerifyPartialResponseDefaults(t *testing.T) {
	srv := modelServer(t, `{"verified":true,"identityScore":90}`, nil)
	defer srv.Close()

	verdict := newService(t, srv.URL).Verify(context.Background(), selfie(t), ResolveMode("data:image/png;base64,cmVm"), "")

	assert.True(t, verdict.Verified)
	assert.Equal(t, "No se pudo verificar.", verdict.Message)
	assert.True(t, verdict.UniformOK)
	assert.Equal(t, "No se pudo analizar la vestimenta.", verdict.UniformDetails)
}

func TestVerifyRemoteFailureNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	verdict := newService(t, srv.URL).Verify(context.Background(), selfie(t), LivenessOnly{}, "")

	assert.False(t, verdict.Verified)
	assert.Zero(t, verdict.IdentityScore)
	assert.Equal(t, "Error técnico conectando con servicio de IA.", verdict.Message)
	assert.False(t, verdict.UniformOK)
}

func TestVerifyUnconfiguredClientNormalized(t *testing.T) {
	svc := NewService(nil, slog.New(slog.DiscardHandler), nil)
	verdict := svc.Verify(context.Background(), selfie(t), LivenessOnly{}, "")
	assert.False(t, verdict.Verified)
	assert.Equal(t, "Error técnico conectando con servicio de IA.", verdict.Message)
}

func TestAdvisoryDetection(t *testing.T) {
	tests := []struct {
		name    string
		verdict Verdict
		want    bool
	}{
		{"fixed marker", Verdict{Verified: true, Message: AdvisoryMessage}, true},
		{"generic warning", Verdict{Verified: true, Message: "Advertencia: baja calidad"}, true},
		{"sin foto phrasing", Verdict{Verified: true, Message: "usuario sin foto"}, true},
		{"clean pass", Verdict{Verified: true, Message: "Identidad confirmada."}, false},
		{"failed verdicts are not advisory", Verdict{Verified: false, Message: AdvisoryMessage}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.verdict.Advisory())
		})
	}
}

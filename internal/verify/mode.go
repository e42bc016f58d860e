package verify

import (
	"regexp"
	"strings"
)

// Mode selects the verification request shape. It is resolved exactly once
// per capture, from the nature of the stored reference photo, so the rest of
// the pipeline never re-infers it from string heuristics.
type Mode interface {
	isMode()
}

// StrictComparison is used when the user has a genuine photographic
// reference: the verdict must reflect a same-person biometric comparison.
// A mismatch yields verified=false with a score in the 0-25 range.
type StrictComparison struct {
	// ReferenceImage is the inline-encoded reference photo.
	ReferenceImage InlineImage
}

// LivenessOnly is used when no usable reference exists (e.g. a generated
// avatar URL). Any live human presence verifies, the score is forced to 100,
// and the message carries AdvisoryMessage.
type LivenessOnly struct {
	// AvatarURL is the non-photographic reference, included in the prompt
	// for context only.
	AvatarURL string
}

func (StrictComparison) isMode() {}
func (LivenessOnly) isMode()     {}

// InlineImage is a decoded data URL: a mime type plus raw base64 payload.
type InlineImage struct {
	MimeType string
	Base64   string
}

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// ParseInlineImage splits a data URL into mime type and base64 payload.
// Returns false for anything that is not an inline image (plain URLs,
// empty strings).
func ParseInlineImage(dataURL string) (InlineImage, bool) {
	if !strings.HasPrefix(dataURL, "data:") {
		return InlineImage{}, false
	}
	m := dataURLPattern.FindStringSubmatch(dataURL)
	if len(m) != 3 {
		return InlineImage{}, false
	}
	return InlineImage{MimeType: m[1], Base64: m[2]}, true
}

// ResolveMode decides the request mode from the stored reference photo:
// an inline photographic reference selects strict comparison, anything else
// degrades to liveness-only.
func ResolveMode(referencePhotoURL string) Mode {
	if img, ok := ParseInlineImage(referencePhotoURL); ok {
		return StrictComparison{ReferenceImage: img}
	}
	return LivenessOnly{AvatarURL: referencePhotoURL}
}

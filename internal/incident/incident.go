// Package incident combines the verification verdict and the location
// evaluation into a single incident record. Pure domain logic: no I/O, no
// side effects, fully table-testable.
package incident

import (
	"strings"

	"timeclock/internal/geo"
	"timeclock/internal/verify"
)

// defaultIdentityDetail is used when a failing verdict carries no message,
// which happens on forced accepts of empty technical verdicts.
const defaultIdentityDetail = "Incidencia de identidad forzada"

// Report is the classification outcome attached to a time log.
type Report struct {
	HasIncident bool
	// Detail joins the contributing messages with ". ", in contributor
	// order: identity, location, advisory. Empty when HasIncident is false.
	Detail string
}

// Classify applies the three independent contributors. None short-circuits
// another: a forced accept far from the store with an advisory marker
// produces all three details.
func Classify(verdict verify.Verdict, location geo.Evaluation) Report {
	var details []string

	if !verdict.Verified {
		msg := verdict.Message
		if msg == "" {
			msg = defaultIdentityDetail
		}
		details = append(details, msg)
	}

	if location.Status != geo.StatusOK {
		details = append(details, location.Detail())
	}

	if verdict.Advisory() {
		details = append(details, verdict.Message)
	}

	if len(details) == 0 {
		return Report{}
	}
	return Report{HasIncident: true, Detail: strings.Join(details, ". ")}
}

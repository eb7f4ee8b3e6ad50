package dispatch

import (
	"fmt"

	"gatezero/internal/domain"
)

const (
	maxScore = 100
	minScore = 0
)

// deduction is the score penalty for a failed or warning check.
type deduction struct {
	fail int
	warn int
}

var deductions = map[domain.CheckName]deduction{
	domain.CheckBlacklist:    {fail: 50},
	domain.CheckRegistration: {fail: 30},
	domain.CheckInsurance:    {fail: 25, warn: 10},
	domain.CheckTaxID:        {warn: 5},
	domain.CheckEWayBill:     {fail: 20},
	domain.CheckPermit:       {fail: 15, warn: 5},
	domain.CheckDriver:       {fail: 20, warn: 5},
	domain.CheckRoute:        {},
}

// Evaluation is the aggregate of an ordered check list.
type Evaluation struct {
	Outcome Outcome
	Score   int
	Reasons []string
}

// EvaluateChecks applies deductions in check order and derives the outcome.
// This is pure domain logic - no I/O, no side effects.
// Any failed check blocks; warnings only reduce the score.
func EvaluateChecks(registration string, checks []domain.Check) Evaluation {
	score := maxScore
	reasons := []string{}
	blocked, warned := false, false

	for _, c := range checks {
		d := deductions[c.Name]
		switch c.Status {
		case domain.CheckFailed:
			blocked = true
			score -= d.fail
			reasons = append(reasons, failureReason(registration, c))
		case domain.CheckWarning:
			warned = true
			score -= d.warn
		}
	}

	outcome := OutcomeApproved
	switch {
	case blocked:
		outcome = OutcomeBlocked
	case warned:
		outcome = OutcomeWarning
	}
	return Evaluation{Outcome: outcome, Score: clampScore(score), Reasons: reasons}
}

// failureReason is the operator-facing reason for a failed check. The
// blacklist reason names the plate; every other reason is the check detail.
func failureReason(registration string, c domain.Check) string {
	if c.Name == domain.CheckBlacklist {
		return fmt.Sprintf("Vehicle %s is on the blacklist", registration)
	}
	return c.Details
}

func clampScore(score int) int {
	return max(minScore, min(maxScore, score))
}

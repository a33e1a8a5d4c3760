package validator

import (
	"math"

	"mailrep/internal/lookup"
	"mailrep/internal/models"
)

const (
	BaseScore = 50.0

	WeightFormatValid = 15.0
	WeightMXValid     = 15.0
	WeightSMTPValid   = 15.0

	// Neutral adjustment for major providers that will not answer SMTP
	// probes. Applied instead of any SMTP penalty.
	WeightSMTPUnverifiable = 10.0

	PenaltySMTPInvalid    = 25.0
	PenaltyMXInvalid      = 30.0
	PenaltyUndeliverable  = 20.0
	PenaltyUnknownDeliver = 15.0
	PenaltyCatchAll       = 10.0
	PenaltyRoleAccount    = 5.0
	PenaltyRiskMedium     = 10.0
	PenaltyRiskHigh       = 20.0
	PenaltyBreachSome     = 10.0
	PenaltyBreachMany     = 20.0

	// Per-factor penalties stack on top of the deterministic ones above, so a
	// catch-all domain is charged twice.
	PenaltyFactorSuspiciousDomain = 50.0
	PenaltyFactorDanger           = 30.0
	PenaltyFactorWarning          = 15.0

	ThresholdSafe  = 70
	ThresholdRisky = 40
)

// Evaluate is the scoring engine: it turns a reputation payload into a
// verification result. It does no I/O and holds no state, so identical
// inputs always give identical results. A nil payload is scored as one
// where every field is unknown.
//
// ID and CreatedAt are left zero; the caller stamps them.
func Evaluate(email string, p *lookup.Payload) models.VerificationResult {
	if p == nil {
		p = &lookup.Payload{}
	}

	factors := detectRiskFactors(email, p)
	score := calculateScore(email, p, factors)

	return models.VerificationResult{
		Email:        email,
		Score:        score,
		Status:       determineStatus(score, p, factors),
		RiskLevel:    determineRiskLevel(score),
		Details:      buildDetails(email, p),
		RiskFactors:  factors,
		Breaches:     breachList(p),
		ProviderName: providerName(p),
	}
}

// calculateScore aggregates payload signals and detected factors into a
// 0-100 trust score.
func calculateScore(email string, p *lookup.Payload, factors []models.RiskFactor) int {
	d := p.Deliverability
	q := p.Quality
	score := BaseScore

	// ── 1. Base ──────────────────────────────────────────────────────────────
	if q.Score != nil {
		score = math.Round(*q.Score * 100)
	} else {
		if lookup.IsTrue(d.IsFormatValid) {
			score += WeightFormatValid
		}
		if lookup.IsTrue(d.IsMXValid) {
			score += WeightMXValid
		}
		if lookup.IsTrue(d.IsSMTPValid) {
			score += WeightSMTPValid
		}
	}

	_, domain := lookup.SplitEmail(email)
	if smtpUnverifiable(domain, p) {
		score += WeightSMTPUnverifiable
	}

	// ── 2. Deterministic penalties ───────────────────────────────────────────
	if lookup.IsFalse(d.IsSMTPValid) {
		score -= PenaltySMTPInvalid
	}
	if lookup.IsFalse(d.IsMXValid) {
		score -= PenaltyMXInvalid
	}
	switch lookup.StringValue(d.Status) {
	case deliverabilityUndeliverable:
		score -= PenaltyUndeliverable
	case deliverabilityUnknown:
		score -= PenaltyUnknownDeliver
	}
	if lookup.IsTrue(q.IsCatchAll) {
		score -= PenaltyCatchAll
	}
	if lookup.IsTrue(q.IsRole) {
		score -= PenaltyRoleAccount
	}
	switch lookup.StringValue(p.Risk.AddressRiskStatus) {
	case riskMedium:
		score -= PenaltyRiskMedium
	case riskHigh:
		score -= PenaltyRiskHigh
	}
	if n := breachCount(p); n > breachDangerCount {
		score -= PenaltyBreachMany
	} else if n > 0 {
		score -= PenaltyBreachSome
	}

	// ── 3. Factor penalties ──────────────────────────────────────────────────
	for _, f := range factors {
		switch f.Severity {
		case models.SeverityDanger:
			if f.Label == LabelSuspiciousDomain {
				score -= PenaltyFactorSuspiciousDomain
			} else {
				score -= PenaltyFactorDanger
			}
		case models.SeverityWarning:
			score -= PenaltyFactorWarning
		}
	}

	// ── 4. Clamp ─────────────────────────────────────────────────────────────
	return clampScore(score)
}

// clampScore bounds before converting so huge values cannot overflow int.
func clampScore(score float64) int {
	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// smtpUnverifiable is true when SMTP validity is unknown and the domain is a
// major consumer provider that blocks mailbox probing.
func smtpUnverifiable(domain string, p *lookup.Payload) bool {
	return p.Deliverability.IsSMTPValid == nil && lookup.IsMajorProvider(domain)
}

func buildDetails(email string, p *lookup.Payload) models.Details {
	_, domain := lookup.SplitEmail(email)
	d := p.Deliverability

	return models.Details{
		SyntaxValid:      lookup.IsTrue(d.IsFormatValid),
		MXRecords:        lookup.IsTrue(d.IsMXValid),
		Disposable:       lookup.IsTrue(p.Quality.IsDisposable),
		SMTPValid:        lookup.IsTrue(d.IsSMTPValid),
		SMTPUnverifiable: smtpUnverifiable(domain, p),
		SpamTrap: lookup.StringValue(p.Risk.AddressRiskStatus) == riskHigh &&
			lookup.IsTrue(p.Quality.IsUsernameSuspicious),
		DomainAge: estimateDomainAge(p),
	}
}

func breachList(p *lookup.Payload) []models.Breach {
	out := make([]models.Breach, 0, len(p.Breaches.BreachedDomains))
	for _, b := range p.Breaches.BreachedDomains {
		out = append(out, models.Breach{Domain: b.Domain, Date: b.DateBreached})
	}
	return out
}

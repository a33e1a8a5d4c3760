package validator

import (
	"mailrep/internal/lookup"
	"mailrep/internal/models"
)

const (
	DomainAgeOverTen  = "> 10 years"
	DomainAgeFiveTen  = "5-10 years"
	DomainAgeTwoFive  = "2-5 years"
	DomainAgeOneTwo   = "1-2 years"
	DomainAgeUnderOne = "< 1 year"
	DomainAgeNew      = "< 1 month"
	DomainAgeUnknown  = "Unknown"
)

// determineStatus classifies the result. Undeliverable short-circuits; any
// danger factor or more than one warning/danger factor forces risky before
// the score is consulted.
func determineStatus(score int, p *lookup.Payload, factors []models.RiskFactor) models.VerificationStatus {
	if lookup.StringValue(p.Deliverability.Status) == deliverabilityUndeliverable {
		return models.StatusInvalid
	}

	dangers, flagged := 0, 0
	for _, f := range factors {
		switch f.Severity {
		case models.SeverityDanger:
			dangers++
			flagged++
		case models.SeverityWarning:
			flagged++
		}
	}
	if dangers > 0 || flagged > 1 {
		return models.StatusRisky
	}

	switch {
	case score >= ThresholdSafe:
		return models.StatusSafe
	case score >= ThresholdRisky:
		return models.StatusRisky
	default:
		return models.StatusInvalid
	}
}

// determineRiskLevel depends on the score only. It is not reconciled with
// the status, so "invalid" with "Medium" is possible.
func determineRiskLevel(score int) models.RiskLevel {
	switch {
	case score >= ThresholdSafe:
		return models.RiskLow
	case score >= ThresholdRisky:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// estimateDomainAge buckets the reported domain age, falling back to
// heuristics when the service did not report one.
func estimateDomainAge(p *lookup.Payload) string {
	if p.Domain.AgeDays != nil {
		years := *p.Domain.AgeDays / 365
		switch {
		case years >= 10:
			return DomainAgeOverTen
		case years >= 5:
			return DomainAgeFiveTen
		case years >= 2:
			return DomainAgeTwoFive
		case years >= 1:
			return DomainAgeOneTwo
		default:
			return DomainAgeUnderOne
		}
	}

	// Free providers are long-established; disposable services churn domains.
	if lookup.IsTrue(p.Quality.IsFreeEmail) {
		return DomainAgeOverTen
	}
	if lookup.IsTrue(p.Quality.IsDisposable) {
		return DomainAgeNew
	}
	return DomainAgeUnknown
}

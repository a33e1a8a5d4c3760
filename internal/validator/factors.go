package validator

import (
	"fmt"
	"strings"

	"mailrep/internal/lookup"
	"mailrep/internal/models"
)

const (
	LabelSuspiciousDomain = "Suspicious Domain"
	LabelUncommonUsername = "Uncommon Username"
	LabelUnusualUsername  = "Unusual Username"
	LabelHighRiskAddress  = "High Risk Address"
	LabelMediumRisk       = "Medium Risk Classification"
	LabelDataBreaches     = "Data Breaches"
	LabelDisposable       = "Disposable Email"
	LabelRoleBased        = "Role-Based Email"
	LabelCatchAll         = "Catch-All Domain"
	LabelFreeProvider     = "Free Email Provider"
	LabelSPFNotStrict     = "SPF Not Strict"
)

// Severity for both username rules. Info factors never cost points.
const usernameSeverity = models.SeverityInfo

const (
	riskHigh   = "high"
	riskMedium = "medium"
	riskLow    = "low"

	deliverabilityUndeliverable = "undeliverable"
	deliverabilityUnknown       = "unknown"

	lowQualityThreshold = 0.3
	breachDangerCount   = 10
)

// detectRiskFactors runs every rule against the address and payload and
// returns the factors that fired, in rule order.
func detectRiskFactors(email string, p *lookup.Payload) []models.RiskFactor {
	factors := []models.RiskFactor{}
	add := func(sev models.Severity, label, desc string) {
		factors = append(factors, models.RiskFactor{Severity: sev, Label: label, Description: desc})
	}

	username, domain := lookup.SplitEmail(email)
	addressRisk := lookup.StringValue(p.Risk.AddressRiskStatus)
	q := p.Quality

	if lookup.HasSuspiciousDomainWord(lookup.DomainLabel(domain)) {
		add(models.SeverityDanger, LabelSuspiciousDomain,
			fmt.Sprintf("The domain %q contains words commonly associated with disposable or fake email services", domain))
	}

	if lookup.IsSuspiciousUsername(username) {
		add(usernameSeverity, LabelUncommonUsername,
			fmt.Sprintf("The username %q matches a pattern often used for test or placeholder accounts", username))
	}

	if lookup.IsTrue(q.IsUsernameSuspicious) {
		add(usernameSeverity, LabelUnusualUsername,
			fmt.Sprintf("The username %q was flagged as unusual by the reputation service", username))
	}

	switch addressRisk {
	case riskHigh:
		add(models.SeverityDanger, LabelHighRiskAddress, highRiskDescription(p))
	case riskMedium:
		add(models.SeverityInfo, LabelMediumRisk,
			"The reputation service rated this address as medium risk")
	}

	if n := breachCount(p); n > 0 {
		sev := models.SeverityWarning
		if n > breachDangerCount {
			sev = models.SeverityDanger
		}
		add(sev, LabelDataBreaches,
			fmt.Sprintf("Found in %d data %s, indicating %s exposure", n, plural(n, "breach", "breaches"), exposureTier(n)))
	}

	if lookup.IsTrue(q.IsDisposable) {
		add(models.SeverityDanger, LabelDisposable,
			"This address belongs to a disposable email service")
	}

	if lookup.IsTrue(q.IsRole) {
		add(models.SeverityWarning, LabelRoleBased,
			fmt.Sprintf("Role-based addresses like %q are usually shared and rarely belong to one person", username))
	}

	if lookup.IsTrue(q.IsCatchAll) && addressRisk != riskHigh {
		add(models.SeverityWarning, LabelCatchAll,
			"The domain accepts mail for any address, so mailbox existence cannot be confirmed")
	}

	if lookup.IsTrue(q.IsFreeEmail) {
		desc := "Address is hosted by a free email provider"
		if name := providerName(p); name != nil {
			desc = fmt.Sprintf("Address is hosted by the free email provider %s", *name)
		}
		add(models.SeverityInfo, LabelFreeProvider, desc)
	}

	if lookup.IsFalse(q.IsSPFStrict) && lookup.IsTrue(q.IsDMARCEnforced) {
		add(models.SeverityInfo, LabelSPFNotStrict,
			"The domain enforces DMARC but its SPF policy is not strict")
	}

	return factors
}

// highRiskDescription explains a high address-risk rating from whatever
// supporting signals the payload carries.
func highRiskDescription(p *lookup.Payload) string {
	var reasons []string

	if p.Quality.Score != nil && *p.Quality.Score < lowQualityThreshold {
		reasons = append(reasons, fmt.Sprintf("very low quality score (%.2f)", *p.Quality.Score))
	}
	if lookup.StringValue(p.Deliverability.Status) == deliverabilityUnknown {
		reasons = append(reasons, "deliverability could not be confirmed")
	}
	if lookup.IsTrue(p.Quality.IsCatchAll) {
		reasons = append(reasons, "domain accepts mail for any address (catch-all)")
	}
	if lookup.IsTrue(p.Quality.IsFreeEmail) && lookup.StringValue(p.Risk.DomainRiskStatus) == riskLow {
		reasons = append(reasons, "free email address on a low-risk domain, a common pattern for throwaway sign-ups")
	}

	if len(reasons) == 0 {
		return "The reputation service classified this address as high risk based on its sending and abuse history"
	}
	return strings.Join(reasons, "; ")
}

func exposureTier(n int) string {
	switch {
	case n > breachDangerCount:
		return "significant"
	case n > 3:
		return "moderate"
	default:
		return "some"
	}
}

func breachCount(p *lookup.Payload) int {
	if p.Breaches.TotalBreaches == nil {
		return 0
	}
	return *p.Breaches.TotalBreaches
}

func providerName(p *lookup.Payload) *string {
	if p.Sender.ProviderName == nil {
		return nil
	}
	name := strings.TrimSpace(*p.Sender.ProviderName)
	if name == "" {
		return nil
	}
	return &name
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

package models

import "time"

type VerificationStatus string
type RiskLevel string
type Severity string

const (
	StatusSafe    VerificationStatus = "safe"
	StatusRisky   VerificationStatus = "risky"
	StatusInvalid VerificationStatus = "invalid"

	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"

	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// RiskFactor is one labeled explanation attached to a verification result.
type RiskFactor struct {
	Severity    Severity `json:"severity"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
}

type Breach struct {
	Domain string `json:"domain"`
	Date   string `json:"date"`
}

type Details struct {
	SyntaxValid      bool   `json:"syntaxValid"`
	MXRecords        bool   `json:"mxRecords"`
	Disposable       bool   `json:"disposable"`
	SMTPValid        bool   `json:"smtpValid"`
	SMTPUnverifiable bool   `json:"smtpUnverifiable"`
	SpamTrap         bool   `json:"spamTrap"`
	DomainAge        string `json:"domainAge"`
}

// VerificationResult is the snapshot produced for a single verification
// request. It is never mutated after the service hands it out.
type VerificationResult struct {
	ID           string             `json:"id,omitempty"`
	Email        string             `json:"email"`
	Score        int                `json:"score"`
	Status       VerificationStatus `json:"status"`
	RiskLevel    RiskLevel          `json:"riskLevel"`
	Details      Details            `json:"details"`
	RiskFactors  []RiskFactor       `json:"riskFactors"`
	Breaches     []Breach           `json:"breaches"`
	ProviderName *string            `json:"providerName"`
	CreatedAt    time.Time          `json:"createdAt"`
}

package lookup

import "strings"

// Payload is the reputation record returned by the third-party service.
// Every scalar is a pointer: nil means the service did not report the field,
// which scoring treats as unknown rather than false.
type Payload struct {
	Email          string         `json:"email"`
	Deliverability Deliverability `json:"email_deliverability"`
	Quality        Quality        `json:"email_quality"`
	Sender         Sender         `json:"email_sender"`
	Domain         Domain         `json:"email_domain"`
	Risk           Risk           `json:"email_risk"`
	Breaches       Breaches       `json:"email_breaches"`
}

type Deliverability struct {
	Status        *string  `json:"status"`
	StatusDetail  *string  `json:"status_detail"`
	IsFormatValid *bool    `json:"is_format_valid"`
	IsSMTPValid   *bool    `json:"is_smtp_valid"`
	IsMXValid     *bool    `json:"is_mx_valid"`
	MXRecords     []string `json:"mx_records"`
}

type Quality struct {
	Score                *float64 `json:"score"`
	IsFreeEmail          *bool    `json:"is_free_email"`
	IsUsernameSuspicious *bool    `json:"is_username_suspicious"`
	IsDisposable         *bool    `json:"is_disposable"`
	IsCatchAll           *bool    `json:"is_catchall"`
	IsSubaddress         *bool    `json:"is_subaddress"`
	IsRole               *bool    `json:"is_role"`
	IsDMARCEnforced      *bool    `json:"is_dmarc_enforced"`
	IsSPFStrict          *bool    `json:"is_spf_strict"`
	MinimumAge           *int     `json:"minimum_age"`
}

type Sender struct {
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	ProviderName     *string `json:"email_provider_name"`
	OrganizationName *string `json:"organization_name"`
	OrganizationType *string `json:"organization_type"`
}

type Domain struct {
	Domain         *string `json:"domain"`
	AgeDays        *int    `json:"domain_age"`
	IsLiveSite     *bool   `json:"is_live_site"`
	Registrar      *string `json:"registrar"`
	DateRegistered *string `json:"date_registered"`
	DateExpires    *string `json:"date_expires"`
	IsRiskyTLD     *bool   `json:"is_risky_tld"`
}

type Risk struct {
	AddressRiskStatus *string `json:"address_risk_status"`
	DomainRiskStatus  *string `json:"domain_risk_status"`
}

type Breaches struct {
	TotalBreaches     *int             `json:"total_breaches"`
	DateFirstBreached *string          `json:"date_first_breached"`
	DateLastBreached  *string          `json:"date_last_breached"`
	BreachedDomains   []BreachedDomain `json:"breached_domains"`
}

type BreachedDomain struct {
	Domain       string `json:"domain"`
	DateBreached string `json:"date_breached"`
}

// IsTrue reports whether an optional flag is present and true.
func IsTrue(b *bool) bool {
	return b != nil && *b
}

// IsFalse reports whether an optional flag is present and false.
func IsFalse(b *bool) bool {
	return b != nil && !*b
}

// StringValue returns the lowercased, trimmed value of an optional string,
// or "" when absent.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*s))
}

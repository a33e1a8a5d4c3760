package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailrep/internal/lookup"
	"mailrep/internal/models"
)

func bp(b bool) *bool       { return &b }
func sp(s string) *string   { return &s }
func fp(f float64) *float64 { return &f }
func ip(i int) *int         { return &i }

func labels(fs []models.RiskFactor) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Label)
	}
	return out
}

// cleanPayload is a deliverable, unflagged address with a 0.9 quality score.
func cleanPayload() *lookup.Payload {
	return &lookup.Payload{
		Deliverability: lookup.Deliverability{
			Status:        sp("deliverable"),
			IsFormatValid: bp(true),
			IsSMTPValid:   bp(true),
			IsMXValid:     bp(true),
		},
		Quality: lookup.Quality{
			Score:        fp(0.9),
			IsFreeEmail:  bp(false),
			IsDisposable: bp(false),
			IsCatchAll:   bp(false),
			IsRole:       bp(false),
		},
		Risk: lookup.Risk{
			AddressRiskStatus: sp("low"),
			DomainRiskStatus:  sp("low"),
		},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name           string
		email          string
		payload        func() *lookup.Payload
		expectedScore  int
		expectedStatus models.VerificationStatus
		expectedRisk   models.RiskLevel
		expectedLabels []string
	}{
		{
			name:           "Clean address with explicit quality score",
			email:          "jane@acme.io",
			payload:        cleanPayload,
			expectedScore:  90,
			expectedStatus: models.StatusSafe,
			expectedRisk:   models.RiskLow,
			expectedLabels: []string{},
		},
		{
			name:  "Suspicious domain forces risky",
			email: "user@tempmail.com",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Quality.Score = fp(0.95)
				return p
			},
			// 95 - 50
			expectedScore:  45,
			expectedStatus: models.StatusRisky,
			expectedRisk:   models.RiskMedium,
			expectedLabels: []string{LabelSuspiciousDomain},
		},
		{
			name:  "Undeliverable is invalid regardless of score",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Quality.Score = fp(0.99)
				p.Deliverability.Status = sp("undeliverable")
				return p
			},
			// 99 - 20; risk level stays score-only
			expectedScore:  79,
			expectedStatus: models.StatusInvalid,
			expectedRisk:   models.RiskLow,
			expectedLabels: []string{},
		},
		{
			name:  "Major provider with unknown SMTP gets neutral boost",
			email: "user@gmail.com",
			payload: func() *lookup.Payload {
				return &lookup.Payload{
					Deliverability: lookup.Deliverability{
						IsFormatValid: bp(true),
						IsMXValid:     bp(true),
					},
					Quality: lookup.Quality{IsFreeEmail: bp(true)},
					Sender:  lookup.Sender{ProviderName: sp("Gmail")},
				}
			},
			// 50 + 15 + 15 + 10
			expectedScore:  90,
			expectedStatus: models.StatusSafe,
			expectedRisk:   models.RiskLow,
			expectedLabels: []string{LabelFreeProvider},
		},
		{
			name:  "Unknown SMTP on a small domain earns nothing",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				return &lookup.Payload{
					Deliverability: lookup.Deliverability{
						IsFormatValid: bp(true),
						IsMXValid:     bp(true),
					},
				}
			},
			expectedScore:  80,
			expectedStatus: models.StatusSafe,
			expectedRisk:   models.RiskLow,
			expectedLabels: []string{},
		},
		{
			name:  "Explicit SMTP and MX failures are penalised",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				return &lookup.Payload{
					Deliverability: lookup.Deliverability{
						IsFormatValid: bp(true),
						IsSMTPValid:   bp(false),
						IsMXValid:     bp(false),
					},
				}
			},
			// 50 + 15 - 25 - 30
			expectedScore:  10,
			expectedStatus: models.StatusInvalid,
			expectedRisk:   models.RiskHigh,
			expectedLabels: []string{},
		},
		{
			name:  "Many breaches are a danger factor",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Breaches.TotalBreaches = ip(15)
				return p
			},
			// 90 - 20 (breach range) - 30 (danger factor)
			expectedScore:  40,
			expectedStatus: models.StatusRisky,
			expectedRisk:   models.RiskMedium,
			expectedLabels: []string{LabelDataBreaches},
		},
		{
			name:  "A single warning does not force risky",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Quality.Score = fp(1.0)
				p.Breaches.TotalBreaches = ip(2)
				return p
			},
			// 100 - 10 - 15
			expectedScore:  75,
			expectedStatus: models.StatusSafe,
			expectedRisk:   models.RiskLow,
			expectedLabels: []string{LabelDataBreaches},
		},
		{
			name:  "Catch-all is charged twice",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Quality.Score = fp(0.8)
				p.Quality.IsCatchAll = bp(true)
				return p
			},
			// 80 - 10 (deterministic) - 15 (warning factor)
			expectedScore:  55,
			expectedStatus: models.StatusRisky,
			expectedRisk:   models.RiskMedium,
			expectedLabels: []string{LabelCatchAll},
		},
		{
			name:  "High risk suppresses the catch-all factor",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Quality.Score = fp(0.5)
				p.Quality.IsCatchAll = bp(true)
				p.Risk.AddressRiskStatus = sp("high")
				return p
			},
			// 50 - 10 - 20 - 30 → clamped
			expectedScore:  0,
			expectedStatus: models.StatusRisky,
			expectedRisk:   models.RiskHigh,
			expectedLabels: []string{LabelHighRiskAddress},
		},
		{
			name:  "Medium risk is informational but still costs points",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Risk.AddressRiskStatus = sp("medium")
				return p
			},
			expectedScore:  80,
			expectedStatus: models.StatusSafe,
			expectedRisk:   models.RiskLow,
			expectedLabels: []string{LabelMediumRisk},
		},
		{
			name:  "Unknown deliverability",
			email: "jane@acme.io",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Deliverability.Status = sp("unknown")
				return p
			},
			expectedScore:  75,
			expectedStatus: models.StatusSafe,
			expectedRisk:   models.RiskLow,
			expectedLabels: []string{},
		},
		{
			name:  "Username pattern is informational",
			email: "test123@acme.io",
			payload: func() *lookup.Payload {
				p := cleanPayload()
				p.Quality.IsUsernameSuspicious = bp(true)
				return p
			},
			expectedScore:  90,
			expectedStatus: models.StatusSafe,
			expectedRisk:   models.RiskLow,
			expectedLabels: []string{LabelUncommonUsername, LabelUnusualUsername},
		},
		{
			name:  "Maximal penalties clamp at zero",
			email: "test@fakeinbox.com",
			payload: func() *lookup.Payload {
				return &lookup.Payload{
					Deliverability: lookup.Deliverability{
						Status:      sp("undeliverable"),
						IsSMTPValid: bp(false),
						IsMXValid:   bp(false),
					},
					Quality: lookup.Quality{
						Score:        fp(0.1),
						IsDisposable: bp(true),
						IsCatchAll:   bp(true),
						IsRole:       bp(true),
					},
					Risk:     lookup.Risk{AddressRiskStatus: sp("high")},
					Breaches: lookup.Breaches{TotalBreaches: ip(50)},
				}
			},
			expectedScore:  0,
			expectedStatus: models.StatusInvalid,
			expectedRisk:   models.RiskHigh,
			expectedLabels: []string{
				LabelSuspiciousDomain, LabelUncommonUsername, LabelHighRiskAddress,
				LabelDataBreaches, LabelDisposable, LabelRoleBased,
			},
		},
		{
			name:           "Empty payload",
			email:          "someone@acme.io",
			payload:        func() *lookup.Payload { return nil },
			expectedScore:  50,
			expectedStatus: models.StatusRisky,
			expectedRisk:   models.RiskMedium,
			expectedLabels: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.email, tt.payload())

			assert.Equal(t, tt.expectedScore, res.Score, "score")
			assert.Equal(t, tt.expectedStatus, res.Status, "status")
			assert.Equal(t, tt.expectedRisk, res.RiskLevel, "risk level")
			assert.Equal(t, tt.expectedLabels, labels(res.RiskFactors))
			assert.GreaterOrEqual(t, res.Score, 0)
			assert.LessOrEqual(t, res.Score, 100)
		})
	}
}

func TestEvaluateBreachPenaltyAgainstCleanBaseline(t *testing.T) {
	clean := Evaluate("jane@acme.io", cleanPayload())

	p := cleanPayload()
	p.Breaches.TotalBreaches = ip(15)
	breached := Evaluate("jane@acme.io", p)

	assert.Equal(t, 50, clean.Score-breached.Score)
	require.Len(t, breached.RiskFactors, 1)
	f := breached.RiskFactors[0]
	assert.Equal(t, models.SeverityDanger, f.Severity)
	assert.Contains(t, f.Description, "15")
	assert.Contains(t, f.Description, "significant exposure")
}

func TestEvaluateDetails(t *testing.T) {
	p := &lookup.Payload{
		Deliverability: lookup.Deliverability{IsFormatValid: bp(true), IsMXValid: bp(true)},
		Quality:        lookup.Quality{IsFreeEmail: bp(true)},
		Sender:         lookup.Sender{ProviderName: sp("Gmail")},
		Breaches: lookup.Breaches{
			BreachedDomains: []lookup.BreachedDomain{
				{Domain: "example.org", DateBreached: "2019-03-01"},
				{Domain: "example.net", DateBreached: "2021-07-14"},
			},
		},
	}

	res := Evaluate("user@gmail.com", p)

	assert.True(t, res.Details.SyntaxValid)
	assert.True(t, res.Details.MXRecords)
	assert.False(t, res.Details.SMTPValid)
	assert.True(t, res.Details.SMTPUnverifiable)
	assert.False(t, res.Details.Disposable)
	assert.False(t, res.Details.SpamTrap)
	assert.Equal(t, DomainAgeOverTen, res.Details.DomainAge)
	require.NotNil(t, res.ProviderName)
	assert.Equal(t, "Gmail", *res.ProviderName)
	assert.Equal(t, []models.Breach{
		{Domain: "example.org", Date: "2019-03-01"},
		{Domain: "example.net", Date: "2021-07-14"},
	}, res.Breaches)
}

func TestEvaluateNeverNilCollections(t *testing.T) {
	res := Evaluate("someone@acme.io", &lookup.Payload{})
	assert.NotNil(t, res.RiskFactors)
	assert.NotNil(t, res.Breaches)
	assert.Nil(t, res.ProviderName)
	assert.Equal(t, DomainAgeUnknown, res.Details.DomainAge)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	p := cleanPayload()
	p.Breaches.TotalBreaches = ip(7)
	p.Quality.IsRole = bp(true)
	p.Domain.AgeDays = ip(900)

	first := Evaluate("admin@acme.io", p)
	second := Evaluate("admin@acme.io", p)
	assert.Equal(t, first, second)
}

func TestDetectRiskFactorsOrder(t *testing.T) {
	p := &lookup.Payload{
		Quality: lookup.Quality{
			IsUsernameSuspicious: bp(true),
			IsDisposable:         bp(true),
			IsRole:               bp(true),
			IsCatchAll:           bp(true),
			IsFreeEmail:          bp(true),
			IsSPFStrict:          bp(false),
			IsDMARCEnforced:      bp(true),
		},
		Risk:     lookup.Risk{AddressRiskStatus: sp("medium")},
		Breaches: lookup.Breaches{TotalBreaches: ip(3)},
	}

	got := detectRiskFactors("admin@tempmail.com", p)

	assert.Equal(t, []string{
		LabelSuspiciousDomain,
		LabelUncommonUsername,
		LabelUnusualUsername,
		LabelMediumRisk,
		LabelDataBreaches,
		LabelDisposable,
		LabelRoleBased,
		LabelCatchAll,
		LabelFreeProvider,
		LabelSPFNotStrict,
	}, labels(got))
}

func TestRiskFactorDescriptions(t *testing.T) {
	t.Run("suspicious domain names the domain", func(t *testing.T) {
		got := detectRiskFactors("user@tempmail.com", &lookup.Payload{})
		require.Len(t, got, 1)
		assert.Equal(t, models.SeverityDanger, got[0].Severity)
		assert.Equal(t,
			`The domain "tempmail.com" contains words commonly associated with disposable or fake email services`,
			got[0].Description)
	})

	t.Run("breach tiers", func(t *testing.T) {
		cases := map[int]string{
			1:  "Found in 1 data breach, indicating some exposure",
			3:  "Found in 3 data breaches, indicating some exposure",
			4:  "Found in 4 data breaches, indicating moderate exposure",
			10: "Found in 10 data breaches, indicating moderate exposure",
			11: "Found in 11 data breaches, indicating significant exposure",
		}
		for n, want := range cases {
			got := detectRiskFactors("jane@acme.io", &lookup.Payload{Breaches: lookup.Breaches{TotalBreaches: ip(n)}})
			require.Len(t, got, 1)
			assert.Equal(t, want, got[0].Description)
			if n > 10 {
				assert.Equal(t, models.SeverityDanger, got[0].Severity)
			} else {
				assert.Equal(t, models.SeverityWarning, got[0].Severity)
			}
		}
	})

	t.Run("free provider with and without a name", func(t *testing.T) {
		named := detectRiskFactors("jane@gmail.com", &lookup.Payload{
			Quality: lookup.Quality{IsFreeEmail: bp(true)},
			Sender:  lookup.Sender{ProviderName: sp("Gmail")},
		})
		require.Len(t, named, 1)
		assert.Equal(t, "Address is hosted by the free email provider Gmail", named[0].Description)

		anon := detectRiskFactors("jane@gmail.com", &lookup.Payload{
			Quality: lookup.Quality{IsFreeEmail: bp(true)},
			Sender:  lookup.Sender{ProviderName: sp("  ")},
		})
		require.Len(t, anon, 1)
		assert.Equal(t, "Address is hosted by a free email provider", anon[0].Description)
	})

	t.Run("high risk joins sub-reasons", func(t *testing.T) {
		got := detectRiskFactors("jane@gmail.com", &lookup.Payload{
			Deliverability: lookup.Deliverability{Status: sp("unknown")},
			Quality: lookup.Quality{
				Score:       fp(0.12),
				IsCatchAll:  bp(true),
				IsFreeEmail: bp(true),
			},
			Risk: lookup.Risk{AddressRiskStatus: sp("high"), DomainRiskStatus: sp("low")},
		})
		require.NotEmpty(t, got)
		assert.Equal(t, LabelHighRiskAddress, got[0].Label)
		assert.Equal(t,
			"very low quality score (0.12); deliverability could not be confirmed; "+
				"domain accepts mail for any address (catch-all); "+
				"free email address on a low-risk domain, a common pattern for throwaway sign-ups",
			got[0].Description)
	})

	t.Run("high risk without sub-reasons", func(t *testing.T) {
		got := detectRiskFactors("jane@acme.io", &lookup.Payload{
			Risk: lookup.Risk{AddressRiskStatus: sp("HIGH")},
		})
		require.Len(t, got, 1)
		assert.Equal(t,
			"The reputation service classified this address as high risk based on its sending and abuse history",
			got[0].Description)
	})

	t.Run("spf rule needs explicit false", func(t *testing.T) {
		got := detectRiskFactors("jane@acme.io", &lookup.Payload{
			Quality: lookup.Quality{IsDMARCEnforced: bp(true)},
		})
		assert.Empty(t, got)
	})
}

func TestDetermineStatus(t *testing.T) {
	warn := models.RiskFactor{Severity: models.SeverityWarning, Label: "w"}
	danger := models.RiskFactor{Severity: models.SeverityDanger, Label: "d"}
	info := models.RiskFactor{Severity: models.SeverityInfo, Label: "i"}
	empty := &lookup.Payload{}

	assert.Equal(t, models.StatusSafe, determineStatus(95, empty, nil))
	assert.Equal(t, models.StatusSafe, determineStatus(95, empty, []models.RiskFactor{warn, info, info}))
	assert.Equal(t, models.StatusRisky, determineStatus(95, empty, []models.RiskFactor{warn, warn}))
	assert.Equal(t, models.StatusRisky, determineStatus(95, empty, []models.RiskFactor{danger}))
	assert.Equal(t, models.StatusSafe, determineStatus(70, empty, nil))
	assert.Equal(t, models.StatusRisky, determineStatus(69, empty, nil))
	assert.Equal(t, models.StatusRisky, determineStatus(40, empty, nil))
	assert.Equal(t, models.StatusInvalid, determineStatus(39, empty, nil))

	undeliverable := &lookup.Payload{Deliverability: lookup.Deliverability{Status: sp("undeliverable")}}
	assert.Equal(t, models.StatusInvalid, determineStatus(100, undeliverable, nil))
	assert.Equal(t, models.StatusInvalid, determineStatus(100, undeliverable, []models.RiskFactor{danger}))
}

func TestDetermineRiskLevel(t *testing.T) {
	cases := map[int]models.RiskLevel{
		100: models.RiskLow,
		70:  models.RiskLow,
		69:  models.RiskMedium,
		40:  models.RiskMedium,
		39:  models.RiskHigh,
		0:   models.RiskHigh,
	}
	for score, want := range cases {
		assert.Equal(t, want, determineRiskLevel(score), "score %d", score)
	}
}

func TestClampScore(t *testing.T) {
	cases := map[float64]int{
		-1e300: 0,
		-5:     0,
		0:      0,
		49.5:   50,
		100:    100,
		130:    100,
		1e300:  100,
	}
	for in, want := range cases {
		assert.Equal(t, want, clampScore(in), "score %g", in)
	}
}

func TestEvaluateOutOfRangeQualityScore(t *testing.T) {
	p := cleanPayload()
	p.Quality.Score = fp(1e300)

	res := Evaluate("jane@acme.io", p)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, models.StatusSafe, res.Status)
	assert.Equal(t, models.RiskLow, res.RiskLevel)
}

func TestEstimateDomainAge(t *testing.T) {
	ages := map[int]string{
		5000: DomainAgeOverTen,
		3650: DomainAgeOverTen,
		3649: DomainAgeFiveTen,
		1825: DomainAgeFiveTen,
		1824: DomainAgeTwoFive,
		730:  DomainAgeTwoFive,
		729:  DomainAgeOneTwo,
		365:  DomainAgeOneTwo,
		364:  DomainAgeUnderOne,
		0:    DomainAgeUnderOne,
	}
	for days, want := range ages {
		p := &lookup.Payload{Domain: lookup.Domain{AgeDays: ip(days)}}
		assert.Equal(t, want, estimateDomainAge(p), "%d days", days)
	}

	assert.Equal(t, DomainAgeOverTen, estimateDomainAge(&lookup.Payload{
		Quality: lookup.Quality{IsFreeEmail: bp(true), IsDisposable: bp(true)},
	}))
	assert.Equal(t, DomainAgeNew, estimateDomainAge(&lookup.Payload{
		Quality: lookup.Quality{IsDisposable: bp(true)},
	}))
	assert.Equal(t, DomainAgeUnknown, estimateDomainAge(&lookup.Payload{}))
}

func TestSpamTrapDetail(t *testing.T) {
	p := &lookup.Payload{
		Quality: lookup.Quality{IsUsernameSuspicious: bp(true)},
		Risk:    lookup.Risk{AddressRiskStatus: sp("high")},
	}
	assert.True(t, Evaluate("xk2q9@acme.io", p).Details.SpamTrap)

	p.Risk.AddressRiskStatus = sp("medium")
	assert.False(t, Evaluate("xk2q9@acme.io", p).Details.SpamTrap)
}

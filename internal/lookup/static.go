package lookup

import (
	"regexp"
	"strings"
)

// Words that show up in the names of throwaway and fake-mailbox services.
// Matched as substrings of the domain's first label.
var suspiciousDomainWords = []string{
	"fake", "temp", "trash", "spam", "disposable", "throwaway",
	"mailinator", "guerrilla", "sharklasers", "trashmail", "tempmail",
	"yopmail", "getairmail", "fakeinbox", "burner", "anonymous",
}

// Local parts typical of test fixtures, placeholder sign-ups and keyboard mashing.
var suspiciousUsernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^test`),
	regexp.MustCompile(`^admin`),
	regexp.MustCompile(`^demo`),
	regexp.MustCompile(`^sample`),
	regexp.MustCompile(`^fake`),
	regexp.MustCompile(`^temp`),
	regexp.MustCompile(`^null`),
	regexp.MustCompile(`^example`),
	regexp.MustCompile(`^noreply`),
	regexp.MustCompile(`^asdf`),
	regexp.MustCompile(`^qwerty`),
	regexp.MustCompile(`^12345`),
	regexp.MustCompile(`^abc123`),
	regexp.MustCompile(`^user\d+`),
}

// Consumer mailbox providers that refuse or tarpit SMTP RCPT probing, so an
// unknown SMTP result from them says nothing about the mailbox.
var majorProviders = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {},
	"yahoo.com": {}, "yahoo.co.uk": {}, "yahoo.co.in": {}, "yahoo.fr": {}, "yahoo.de": {},
	"outlook.com": {}, "hotmail.com": {}, "live.com": {}, "msn.com": {},
	"icloud.com": {}, "me.com": {}, "mac.com": {},
	"aol.com": {},
	"protonmail.com": {}, "proton.me": {},
	"zoho.com": {},
	"mail.com": {},
	"gmx.com": {}, "gmx.net": {},
	"yandex.com": {}, "yandex.ru": {},
}

// SplitEmail returns the local part and the lowercased domain. Addresses
// without an '@' yield the whole input as username and an empty domain.
func SplitEmail(email string) (username, domain string) {
	user, dom, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found {
		return user, ""
	}
	return user, strings.ToLower(dom)
}

// DomainLabel returns the domain's first label, e.g. "tempmail" for
// "tempmail.co.uk".
func DomainLabel(domain string) string {
	label, _, _ := strings.Cut(strings.ToLower(domain), ".")
	return label
}

// HasSuspiciousDomainWord checks if the domain label contains any word
// associated with disposable or fake mail services.
func HasSuspiciousDomainWord(label string) bool {
	label = strings.ToLower(label)
	for _, w := range suspiciousDomainWords {
		if strings.Contains(label, w) {
			return true
		}
	}
	return false
}

// IsSuspiciousUsername checks the local part against the fixed pattern list.
func IsSuspiciousUsername(username string) bool {
	u := strings.ToLower(username)
	for _, re := range suspiciousUsernamePatterns {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}

// IsMajorProvider checks if the domain belongs to a large consumer provider.
func IsMajorProvider(domain string) bool {
	_, ok := majorProviders[strings.ToLower(domain)]
	return ok
}

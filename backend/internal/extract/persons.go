package extract

import (
	"regexp"
	"strings"
)

// Person is an extracted participant identity. The lower-cased email address
// is the identity key; the display name is best-effort.
type Person struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

var (
	angleAddrRe = regexp.MustCompile(`<([^>]+)>`)
	namePartRe  = regexp.MustCompile(`^([^<]+)`)
)

// ParseAddress extracts a person from a "Name <email@example.com>" style
// identifier. Bare addresses and raw identifiers are accepted as-is; the
// name falls back to the address local part.
func ParseAddress(raw string) Person {
	raw = strings.TrimSpace(raw)

	email := raw
	if m := angleAddrRe.FindStringSubmatch(raw); m != nil {
		email = m[1]
	}
	email = strings.ToLower(strings.TrimSpace(email))

	name := ""
	if m := namePartRe.FindStringSubmatch(raw); m != nil {
		name = strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	if name == "" || strings.EqualFold(name, email) {
		name = localPart(email)
	}

	return Person{Email: email, Name: name}
}

// ParseAddresses maps ParseAddress over a recipient list, dropping blanks
// and de-duplicating by email
func ParseAddresses(raws []string) []Person {
	seen := make(map[string]bool, len(raws))
	persons := make([]Person, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		p := ParseAddress(raw)
		if p.Email == "" || seen[p.Email] {
			continue
		}
		seen[p.Email] = true
		persons = append(persons, p)
	}
	return persons
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

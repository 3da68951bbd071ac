package template

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-notify-nosql/internal/domain"
)

// placeholder matches {{key}} with optional whitespace inside the braces.
var placeholder = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Resolve personalises body for one recipient. Keys are matched case-insensitively
// and unknown placeholders are left as they are.
func Resolve(body string, r *domain.Recipient, scope string, mappings map[string]domain.ScopeMapping) string {
	vars := variables(r.Fields(), mappings[scope])
	return placeholder.ReplaceAllStringFunc(body, func(m string) string {
		key := strings.ToLower(placeholder.FindStringSubmatch(m)[1])
		if v, ok := vars[key]; ok {
			return v
		}
		return m
	})
}

// variables lower-cases every field key, then sets name/phone from the scope
// mapping (falling back to the literal fields) and email from the literal field.
func variables(fields map[string]string, m domain.ScopeMapping) map[string]string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make(map[string]string, len(keys)+3)
	for _, k := range keys {
		vars[strings.ToLower(k)] = fields[k]
	}

	literal := func(field string) string {
		return strings.TrimSpace(vars[strings.ToLower(field)])
	}
	mapped := func(field, fallback string) string {
		if field != "" {
			if v := literal(field); v != "" {
				return v
			}
		}
		return literal(fallback)
	}

	name := mapped(m.Name, "name")
	phone := mapped(m.Phone, "phone")
	email := literal("email")
	vars["name"] = name
	vars["phone"] = phone
	vars["email"] = email
	return vars
}

// Placeholders lists the distinct lower-cased keys used in body, in order of first use.
func Placeholders(body string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(body, -1) {
		k := strings.ToLower(m[1])
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

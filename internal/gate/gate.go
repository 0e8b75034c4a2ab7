// Package gate decides whether a page request may reach its handler.
package gate

import (
	"fmt"
	"path"
	"strings"

	"github.com/biolab/datalab/internal/token"
)

// Access classifies a path
type Access int

const (
	Public Access = iota
	Protected
)

func (a Access) String() string {
	if a == Protected {
		return "protected"
	}
	return "public"
}

// Rule maps a path prefix to an access class. Prefixes match on segment
// boundaries: "/datalab" covers "/datalab" and "/datalab/x", not "/datalabs".
type Rule struct {
	Prefix string
	Access Access
}

// Verifier authoritatively accepts or rejects a credential
type Verifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Decision is the outcome for a single request
type Decision struct {
	Allow       bool
	RedirectTo  string
	ClearCookie bool
	// Claims is set when a protected path was allowed with a valid credential.
	Claims *token.Claims
	// VerifyErr is why a presented credential was rejected.
	VerifyErr error
}

// Policy is an immutable rule set plus the landing route for rejects.
type Policy struct {
	rules    []Rule
	landing  string
	verifier Verifier
}

// NewPolicy validates the rules. The landing path must itself be public or
// every rejected request would loop.
func NewPolicy(verifier Verifier, landing string, rules ...Rule) (*Policy, error) {
	if verifier == nil {
		return nil, fmt.Errorf("gate: verifier is required")
	}

	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		prefix := normalize(r.Prefix)
		if prefix == "" {
			return nil, fmt.Errorf("gate: empty rule prefix")
		}
		normalized = append(normalized, Rule{Prefix: prefix, Access: r.Access})
	}

	p := &Policy{
		rules:    normalized,
		landing:  normalize(landing),
		verifier: verifier,
	}
	if p.landing == "" {
		p.landing = "/"
	}
	if p.Classify(p.landing) == Protected {
		return nil, fmt.Errorf("gate: landing path %q is protected", p.landing)
	}
	return p, nil
}

// Landing returns the path rejected requests are sent to
func (p *Policy) Landing() string {
	return p.landing
}

// Classify returns the access class of reqPath. The longest matching prefix
// wins; unmatched paths are public. A path is protected if either its raw or
// its cleaned form is, so dot segments cannot step around a rule.
func (p *Policy) Classify(reqPath string) Access {
	if p.classify(reqPath) == Protected {
		return Protected
	}
	return p.classify(normalize(reqPath))
}

func (p *Policy) classify(reqPath string) Access {
	access := Public
	best := -1
	for _, r := range p.rules {
		if !matches(r.Prefix, reqPath) {
			continue
		}
		if len(r.Prefix) > best {
			best = len(r.Prefix)
			access = r.Access
		}
	}
	return access
}

// Decide applies the policy to a request path and its (possibly empty)
// credential. It fetches nothing and has no side effects.
func (p *Policy) Decide(reqPath, credential string) Decision {
	if p.Classify(reqPath) == Public {
		return Decision{Allow: true}
	}

	if credential == "" {
		return Decision{RedirectTo: p.landing}
	}

	claims, err := p.verifier.Verify(credential)
	if err != nil {
		return Decision{RedirectTo: p.landing, ClearCookie: true, VerifyErr: err}
	}

	return Decision{Allow: true, Claims: claims}
}

func matches(prefix, reqPath string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(reqPath, prefix) {
		return false
	}
	return len(reqPath) == len(prefix) || reqPath[len(prefix)] == '/'
}

func normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// RulesFromPrefixes builds rules for a list of prefixes sharing one access class.
func RulesFromPrefixes(access Access, prefixes []string) []Rule {
	rules := make([]Rule, 0, len(prefixes))
	for _, prefix := range prefixes {
		if strings.TrimSpace(prefix) == "" {
			continue
		}
		rules = append(rules, Rule{Prefix: prefix, Access: access})
	}
	return rules
}

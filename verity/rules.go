package verity

import "fmt"

// Check is the input every rule evaluates.
type Check struct {
	Attestation Attestation
	Caller      CallerContext
}

// Rule is an explicit, named validation rule mapped to exactly one Code.
//
// ID must be stable across versions.
// Apply must be deterministic and side-effect free.
type Rule struct {
	ID    string
	Kind  Kind
	Code  Code
	Apply func(Check) error
}

func (r Rule) apply(c Check) error {
	if r.Apply == nil {
		return newError(KindInternal, "", "VERITY-INTERNAL-001", "nil rule Apply")
	}
	return r.Apply(c)
}

func (r Rule) fail(msg string) error {
	return newError(r.Kind, r.Code, r.ID, msg)
}

// DomainRules returns the domain separator rules in evaluation order.
func DomainRules(cfg DomainConfig) []Rule {
	return []Rule{
		equalRule("VERITY-DOM-001", KindDomain, CodeInvalidName, "name", cfg.Name,
			func(a Attestation) string { return a.Name }),
		equalRule("VERITY-DOM-002", KindDomain, CodeInvalidVersion, "version", cfg.Version,
			func(a Attestation) string { return a.Version }),
		equalRule("VERITY-DOM-003", KindDomain, CodeInvalidCluster, "cluster", cfg.Cluster,
			func(a Attestation) string { return a.Cluster }),
	}
}

// PolicyRules returns the subject, signer, expiry and schema rules in
// evaluation order.
func PolicyRules(cfg DomainConfig) []Rule {
	subject := Rule{ID: "VERITY-POL-001", Kind: KindPolicy, Code: CodeSubjectMismatch}
	subject.Apply = func(c Check) error {
		if c.Caller.Identity != c.Attestation.Subject {
			return subject.fail(fmt.Sprintf("caller %s is not subject %s", c.Caller.Identity, c.Attestation.Subject))
		}
		return nil
	}

	signer := Rule{ID: "VERITY-POL-002", Kind: KindPolicy, Code: CodeSubjectIsNotSigner}
	signer.Apply = func(c Check) error {
		if !c.Caller.Authenticated {
			return signer.fail("subject did not authenticate the call")
		}
		return nil
	}

	expiry := Rule{ID: "VERITY-POL-003", Kind: KindPolicy, Code: CodeExpired}
	expiry.Apply = func(c Check) error {
		if c.Caller.Now >= c.Attestation.Expiration {
			return expiry.fail(fmt.Sprintf("expired at %d (now %d)", c.Attestation.Expiration, c.Caller.Now))
		}
		return nil
	}

	return []Rule{
		subject,
		signer,
		expiry,
		equalRule("VERITY-POL-004", KindPolicy, CodeInvalidSchema, "schema", cfg.Schema,
			func(a Attestation) string { return a.Schema }),
	}
}

func equalRule(id string, kind Kind, code Code, field, want string, get func(Attestation) string) Rule {
	r := Rule{ID: id, Kind: kind, Code: code}
	r.Apply = func(c Check) error {
		if got := get(c.Attestation); got != want {
			return r.fail(fmt.Sprintf("%s %q, want %q", field, got, want))
		}
		return nil
	}
	return r
}

// ValidateRules runs rules in order, returning the first failure.
//
// Rule order is the evaluation order; keep it stable.
func ValidateRules(c Check, rules []Rule) error {
	for _, r := range rules {
		if err := r.apply(c); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRulesAll runs every rule and returns all violations in order.
// It is a diagnostic aid; verification itself stops at the first failure.
func ValidateRulesAll(c Check, rules []Rule) []error {
	var out []error
	for _, r := range rules {
		if err := r.apply(c); err != nil {
			out = append(out, err)
		}
	}
	return out
}

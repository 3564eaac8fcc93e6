package verity

import (
	"crypto/subtle"
	"errors"
)

// Stage is a step of the verification state machine. Stages run in
// declaration order; the first failure ends the run.
type Stage int

const (
	StageStart Stage = iota
	StageDomainChecked
	StagePolicyChecked
	StageEncoded
	StageHashed
	StageRecovered
	StageTrustMatched
	StageAccept
)

var stageNames = [...]string{
	StageStart:         "Start",
	StageDomainChecked: "DomainChecked",
	StagePolicyChecked: "PolicyChecked",
	StageEncoded:       "Encoded",
	StageHashed:        "Hashed",
	StageRecovered:     "Recovered",
	StageTrustMatched:  "TrustMatched",
	StageAccept:        "Accept",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// Verify checks that a was signed by anchor, is addressed to cfg, has not
// expired at caller.Now and is presented by its authenticated subject.
//
// An incomplete cfg is rejected with InvalidConfig before any rule runs.
// A nil return is Accept. Otherwise the error is a *Error whose Code and
// RuleID name the first violated rule and whose Stage is the last stage
// that passed. Verify has no side effects and reads no clock.
func Verify(sig [SignatureSize]byte, recoveryID uint8, a Attestation, caller CallerContext, anchor PublicKey, cfg DomainConfig) error {
	stage := StageStart
	c := Check{Attestation: a, Caller: caller}

	if err := cfg.Validate(); err != nil {
		return atStage(err, stage)
	}
	if err := ValidateRules(c, DomainRules(cfg)); err != nil {
		return atStage(err, stage)
	}
	stage = StageDomainChecked

	if err := ValidateRules(c, PolicyRules(cfg)); err != nil {
		return atStage(err, stage)
	}
	stage = StagePolicyChecked

	msg := Encode(a)
	stage = StageEncoded

	digest := Hash(msg)
	stage = StageHashed

	recovered, err := Recover(digest, sig, recoveryID)
	if err != nil {
		return atStage(err, stage)
	}
	stage = StageRecovered

	if subtle.ConstantTimeCompare(recovered[:], anchor[:]) != 1 {
		return atStage(newError(KindCrypto, CodeUntrustedSigner, "VERITY-CRYPTO-201",
			"recovered signer "+recovered.String()+" is not the trust anchor"), stage)
	}
	return nil
}

func atStage(err error, stage Stage) error {
	var e *Error
	if errors.As(err, &e) {
		e.Stage = stage
		return e
	}
	return wrapError(KindInternal, "", "VERITY-INTERNAL-002", "unstructured rule error", err)
}

// Verifier binds verification to one deployment's trust anchor and domain.
// It is immutable and safe for concurrent use.
type Verifier struct {
	anchor PublicKey
	domain DomainConfig
}

// NewVerifier validates the deployment configuration. An incomplete domain
// or an all-zero anchor is rejected; there are no fallbacks.
func NewVerifier(anchor PublicKey, domain DomainConfig) (*Verifier, error) {
	if err := domain.Validate(); err != nil {
		return nil, err
	}
	if anchor.IsZero() {
		return nil, newError(KindConfig, CodeInvalidConfig, "VERITY-CFG-002", "trust anchor is empty")
	}
	return &Verifier{anchor: anchor, domain: domain}, nil
}

func (v *Verifier) Anchor() PublicKey { return v.anchor }

func (v *Verifier) Domain() DomainConfig { return v.domain }

// Verify runs Verify with this deployment's anchor and domain.
func (v *Verifier) Verify(sig Signature, a Attestation, caller CallerContext) error {
	return Verify(sig.RS, sig.RecoveryID, a, caller, v.anchor, v.domain)
}

// Explain evaluates every domain and policy rule and returns all violations
// in order, followed by the signature outcome when it fails. It is meant for
// operators diagnosing a rejection; use Verify for decisions.
func (v *Verifier) Explain(sig Signature, a Attestation, caller CallerContext) []error {
	c := Check{Attestation: a, Caller: caller}
	out := ValidateRulesAll(c, DomainRules(v.domain))
	out = append(out, ValidateRulesAll(c, PolicyRules(v.domain))...)

	recovered, err := Recover(a.Digest(), sig.RS, sig.RecoveryID)
	switch {
	case err != nil:
		out = append(out, err)
	case subtle.ConstantTimeCompare(recovered[:], v.anchor[:]) != 1:
		out = append(out, newError(KindCrypto, CodeUntrustedSigner, "VERITY-CRYPTO-201",
			"recovered signer "+recovered.String()+" is not the trust anchor"))
	}
	return out
}

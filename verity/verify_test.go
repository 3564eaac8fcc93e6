package verity_test

import (
	"errors"
	"testing"

	"xdao.co/verity/internal/testkit"
	"xdao.co/verity/verity"
)

const cluster = "localnet"

type fixture struct {
	att    verity.Attestation
	sig    verity.Signature
	caller verity.CallerContext
	anchor verity.PublicKey
	cfg    verity.DomainConfig
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	p := testkit.DefaultPresenter(t)
	att := testkit.Attestation(cluster, p.Identity())
	return fixture{
		att:    att,
		sig:    testkit.DefaultIssuer(t).Sign(att),
		caller: verity.CallerContext{Identity: p.Identity(), Authenticated: true, Now: 1700000000},
		anchor: testkit.Anchor(t),
		cfg:    verity.NewDomainConfig(cluster),
	}
}

func (f fixture) verify() error {
	return verity.Verify(f.sig.RS, f.sig.RecoveryID, f.att, f.caller, f.anchor, f.cfg)
}

func requireCode(t *testing.T, err error, want verity.Code) *verity.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got accept", want)
	}
	var e *verity.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *verity.Error, got %T: %v", err, err)
	}
	if e.Code != want {
		t.Fatalf("expected %s, got %s (%v)", want, e.Code, err)
	}
	return e
}

func TestVerify_Accept(t *testing.T) {
	f := newFixture(t)
	if err := f.verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerify_IncompleteDomainConfig_Rejected(t *testing.T) {
	f := newFixture(t)
	// An attestation with empty domain fields, validly signed, must not pass
	// against an empty config.
	f.att.Name, f.att.Version, f.att.Cluster, f.att.Schema = "", "", "", ""
	f.sig = testkit.DefaultIssuer(t).Sign(f.att)
	f.cfg = verity.DomainConfig{}

	e := requireCode(t, f.verify(), verity.CodeInvalidConfig)
	if e.RuleID != "VERITY-CFG-001" {
		t.Fatalf("RuleID: got %s", e.RuleID)
	}
	if e.Stage != verity.StageStart {
		t.Fatalf("Stage: got %s want Start", e.Stage)
	}

	f.cfg = verity.NewDomainConfig("")
	requireCode(t, f.verify(), verity.CodeInvalidConfig)
}

func TestVerify_DomainFieldMutation_FailsBeforeRecovery(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*verity.Attestation)
		code   verity.Code
		rule   string
	}{
		{"name", func(a *verity.Attestation) { a.Name = "verificationregistry" }, verity.CodeInvalidName, "VERITY-DOM-001"},
		{"version", func(a *verity.Attestation) { a.Version = "1.1" }, verity.CodeInvalidVersion, "VERITY-DOM-002"},
		{"cluster", func(a *verity.Attestation) { a.Cluster = "mainnet-beta" }, verity.CodeInvalidCluster, "VERITY-DOM-003"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			// Signature stays valid over the original bytes.
			tc.mutate(&f.att)
			e := requireCode(t, f.verify(), tc.code)
			if e.RuleID != tc.rule {
				t.Fatalf("RuleID: got %s want %s", e.RuleID, tc.rule)
			}
			if e.Stage != verity.StageStart {
				t.Fatalf("Stage: got %s want Start", e.Stage)
			}
		})
	}
}

func TestVerify_ExpirationBoundaryIsExclusive(t *testing.T) {
	f := newFixture(t)
	f.caller.Now = f.att.Expiration
	e := requireCode(t, f.verify(), verity.CodeExpired)
	if e.Stage != verity.StageDomainChecked {
		t.Fatalf("Stage: got %s", e.Stage)
	}

	f.caller.Now = f.att.Expiration - 1
	if err := f.verify(); err != nil {
		t.Fatalf("one second before expiration: %v", err)
	}
}

func TestVerify_SubjectMismatch_IndependentOfSignature(t *testing.T) {
	f := newFixture(t)
	other := testkit.NewPresenter(t, "0101010101010101010101010101010101010101010101010101010101010101")
	f.caller.Identity = other.Identity()
	requireCode(t, f.verify(), verity.CodeSubjectMismatch)

	// Garbage signature: the subject rule still fires first.
	f.sig.RS = [verity.SignatureSize]byte{}
	f.sig.RecoveryID = 9
	requireCode(t, f.verify(), verity.CodeSubjectMismatch)
}

func TestVerify_SubjectIsNotSigner(t *testing.T) {
	f := newFixture(t)
	f.caller.Authenticated = false
	requireCode(t, f.verify(), verity.CodeSubjectIsNotSigner)
}

func TestVerify_InvalidSchema(t *testing.T) {
	f := newFixture(t)
	f.att.Schema = "centre.io/credentials/kyb"
	requireCode(t, f.verify(), verity.CodeInvalidSchema)
}

func TestVerify_UntrustedSigner(t *testing.T) {
	f := newFixture(t)
	f.sig = testkit.OtherIssuer(t).Sign(f.att)
	e := requireCode(t, f.verify(), verity.CodeUntrustedSigner)
	if e.Stage != verity.StageRecovered {
		t.Fatalf("Stage: got %s want Recovered", e.Stage)
	}
	if !errors.Is(e, verity.ErrUntrustedSigner) {
		t.Fatalf("errors.Is(ErrUntrustedSigner) = false")
	}
}

func TestVerify_ByteFlipAfterSigning_UntrustedSigner(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(*verity.Attestation){
		"subject":    func(a *verity.Attestation) { a.Subject[31] ^= 0x01 },
		"expiration": func(a *verity.Attestation) { a.Expiration++ },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			g := f
			mutate(&g.att)
			// Keep the policy rules satisfied so only the signature can fail.
			g.caller.Identity = g.att.Subject
			requireCode(t, g.verify(), verity.CodeUntrustedSigner)
		})
	}
}

func TestVerify_ByteFlipInEncoding_EveryPosition(t *testing.T) {
	f := newFixture(t)
	msg := verity.Encode(f.att)
	for i := range msg {
		flipped := append([]byte(nil), msg...)
		flipped[i] ^= 0x80
		d := verity.Hash(flipped)
		pk, err := verity.Recover(d, f.sig.RS, f.sig.RecoveryID)
		if err != nil {
			t.Fatalf("flip at byte %d: Recover: %v", i, err)
		}
		if pk == f.anchor {
			t.Fatalf("flip at byte %d still recovers the anchor", i)
		}
	}
}

func TestVerify_RecoveryIDOutOfRange(t *testing.T) {
	for _, id := range []uint8{4, 27, 255} {
		f := newFixture(t)
		f.sig.RecoveryID = id
		e := requireCode(t, f.verify(), verity.CodeSignatureRecoveryFailed)
		if e.RuleID != "VERITY-CRYPTO-101" {
			t.Fatalf("id %d: RuleID %s", id, e.RuleID)
		}
		if e.Stage != verity.StageHashed {
			t.Fatalf("id %d: Stage %s", id, e.Stage)
		}
	}
}

func TestVerify_WrongRecoveryIDInRange(t *testing.T) {
	f := newFixture(t)
	f.sig.RecoveryID ^= 1
	requireCode(t, f.verify(), verity.CodeUntrustedSigner)
}

func TestVerify_FirstFailureWins(t *testing.T) {
	f := newFixture(t)
	f.att.Version = "2.0"
	f.att.Schema = "other"
	f.caller.Authenticated = false
	requireCode(t, f.verify(), verity.CodeInvalidVersion)
}

func TestVerify_Deterministic(t *testing.T) {
	f := newFixture(t)
	f.caller.Authenticated = false
	first := f.verify()
	for i := 0; i < 10; i++ {
		if got := f.verify(); got.Error() != first.Error() {
			t.Fatalf("non-deterministic: %v vs %v", got, first)
		}
	}
}

func TestVerifier_RejectsIncompleteConfig(t *testing.T) {
	anchor := testkit.Anchor(t)
	if _, err := verity.NewVerifier(anchor, verity.NewDomainConfig("")); verity.CodeOf(err) != verity.CodeInvalidConfig {
		t.Fatalf("empty cluster: got %v", err)
	}
	if _, err := verity.NewVerifier(verity.PublicKey{}, verity.NewDomainConfig(cluster)); verity.CodeOf(err) != verity.CodeInvalidConfig {
		t.Fatalf("zero anchor: got %v", err)
	}
}

func TestVerifier_VerifyAndExplain(t *testing.T) {
	f := newFixture(t)
	v, err := verity.NewVerifier(f.anchor, f.cfg)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if err := v.Verify(f.sig, f.att, f.caller); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if errs := v.Explain(f.sig, f.att, f.caller); len(errs) != 0 {
		t.Fatalf("Explain on valid input: %v", errs)
	}

	f.att.Cluster = "devnet"
	f.caller.Authenticated = false
	errs := v.Explain(f.sig, f.att, f.caller)
	want := []verity.Code{verity.CodeInvalidCluster, verity.CodeSubjectIsNotSigner, verity.CodeUntrustedSigner}
	if len(errs) != len(want) {
		t.Fatalf("Explain: got %d errors %v", len(errs), errs)
	}
	for i, code := range want {
		if verity.CodeOf(errs[i]) != code {
			t.Fatalf("Explain[%d]: got %s want %s", i, verity.CodeOf(errs[i]), code)
		}
	}
}

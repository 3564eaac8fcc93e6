package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/verity/internal/testkit"
	"xdao.co/verity/rpc"
	"xdao.co/verity/verity"
)

type cliFixture struct {
	dir    string
	config string
	att    verity.Attestation
	attPth string
	sig    string
	caller string
}

func newCLIFixture(t *testing.T) cliFixture {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "verity.yaml")
	cfg := "deployments:\n  localnet:\n    trust_anchor: \"" + testkit.AnchorHex + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	p := testkit.DefaultPresenter(t)
	att := testkit.Attestation("localnet", p.Identity())
	b, err := json.Marshal(att)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	attPath := filepath.Join(dir, "att.json")
	if err := os.WriteFile(attPath, b, 0o600); err != nil {
		t.Fatalf("write attestation: %v", err)
	}
	return cliFixture{
		dir:    dir,
		config: cfgPath,
		att:    att,
		attPth: attPath,
		sig:    testkit.DefaultIssuer(t).Sign(att).String(),
		caller: p.Identity().String(),
	}
}

func runCLI(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(""), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestVerify_AcceptAndReject(t *testing.T) {
	f := newCLIFixture(t)
	base := []string{"verify", "--config", f.config, "--deployment", "localnet",
		"--attestation", f.attPth, "--signature", f.sig, "--caller", f.caller, "--now", "1700000000"}

	code, out, errOut := runCLI(append(base, "--authenticated")...)
	if code != 0 {
		t.Fatalf("expected accept, code=%d out=%q err=%q", code, out, errOut)
	}
	if !strings.HasPrefix(out, "ACCEPT b") {
		t.Fatalf("unexpected output %q", out)
	}

	code, out, _ = runCLI(base...)
	if code != 1 || !strings.Contains(out, "REJECT SubjectIsNotSigner VERITY-POL-002") {
		t.Fatalf("expected SubjectIsNotSigner, code=%d out=%q", code, out)
	}
}

func TestVerify_PresentationAuthenticates(t *testing.T) {
	f := newCLIFixture(t)
	p := testkit.DefaultPresenter(t)
	proof := rpc.EncodePresentation(p.Sign(rpc.PresentationMessage("localnet", f.att.Digest(), 1700000000)))
	base := []string{"verify", "--config", f.config, "--deployment", "localnet",
		"--attestation", f.attPth, "--signature", f.sig, "--caller", f.caller,
		"--presentation", proof, "--presented-at", "1700000000"}

	code, out, errOut := runCLI(append(base, "--now", "1700000030")...)
	if code != 0 {
		t.Fatalf("expected accept, code=%d out=%q err=%q", code, out, errOut)
	}

	// Replaying the same proof a day later does not authenticate.
	code, out, _ = runCLI(append(base, "--now", "1700086400")...)
	if code != 1 || !strings.Contains(out, "REJECT SubjectIsNotSigner VERITY-POL-002") {
		t.Fatalf("expected stale presentation rejected, code=%d out=%q", code, out)
	}
}

func TestVerify_PresentationRequiresTimestamp(t *testing.T) {
	f := newCLIFixture(t)
	code, _, errOut := runCLI("verify", "--config", f.config, "--deployment", "localnet",
		"--attestation", f.attPth, "--signature", f.sig, "--caller", f.caller,
		"--presentation", "AAAA")
	if code != 2 || !strings.Contains(errOut, "--presented-at") {
		t.Fatalf("expected usage error, code=%d err=%q", code, errOut)
	}
}

func TestVerify_NowZeroIsHonored(t *testing.T) {
	f := newCLIFixture(t)
	att := f.att
	att.Expiration = 1
	b, err := json.Marshal(att)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	attPath := filepath.Join(f.dir, "short.json")
	if err := os.WriteFile(attPath, b, 0o600); err != nil {
		t.Fatalf("write attestation: %v", err)
	}
	base := []string{"verify", "--config", f.config, "--deployment", "localnet",
		"--attestation", attPath, "--signature", testkit.DefaultIssuer(t).Sign(att).String(),
		"--caller", f.caller, "--authenticated"}

	if code, out, errOut := runCLI(append(base, "--now", "0")...); code != 0 {
		t.Fatalf("expected accept at epoch, code=%d out=%q err=%q", code, out, errOut)
	}
	if code, out, _ := runCLI(base...); code != 1 || !strings.Contains(out, "REJECT Expired") {
		t.Fatalf("expected system clock to expire it, code=%d out=%q", code, out)
	}
}

func TestVerify_Explain(t *testing.T) {
	f := newCLIFixture(t)
	code, out, _ := runCLI("verify", "--config", f.config, "--deployment", "localnet",
		"--attestation", f.attPth, "--signature", f.sig, "--caller", f.caller,
		"--now", "9999999999", "--explain")
	if code != 1 {
		t.Fatalf("expected reject, got %d", code)
	}
	for _, want := range []string{"VERITY-POL-002", "VERITY-POL-003"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %q", want, out)
		}
	}
}

func TestVerify_RequiresDeployment(t *testing.T) {
	t.Setenv("VERITY_DEPLOYMENT", "")
	f := newCLIFixture(t)
	code, _, errOut := runCLI("verify", "--config", f.config,
		"--attestation", f.attPth, "--signature", f.sig, "--caller", f.caller)
	if code != 2 || !strings.Contains(errOut, "no deployment selected") {
		t.Fatalf("expected usage error, code=%d err=%q", code, errOut)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := newCLIFixture(t)
	code, out, errOut := runCLI("encode", "--attestation", f.attPth, "--digest")
	if code != 0 {
		t.Fatalf("encode: %d %q", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || lines[1] != f.att.Digest().String() {
		t.Fatalf("unexpected encode output %q", out)
	}

	code, out, errOut = runCLI("decode", lines[0])
	if code != 0 {
		t.Fatalf("decode: %d %q", code, errOut)
	}
	var got verity.Attestation
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got != f.att {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestAnchor(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "issuer.key")
	if err := os.WriteFile(keyPath, []byte(testkit.IssuerKeyHex+"\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	code, out, errOut := runCLI("anchor", "--private-key-file", keyPath)
	if code != 0 {
		t.Fatalf("anchor: %d %q", code, errOut)
	}
	if !strings.Contains(out, testkit.AnchorHex) || !strings.Contains(out, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266") {
		t.Fatalf("unexpected anchor output %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if code, _, _ := runCLI("nope"); code != 2 {
		t.Fatalf("expected 2, got %d", code)
	}
	if code, _, _ := runCLI(); code != 2 {
		t.Fatalf("expected 2, got %d", code)
	}
}

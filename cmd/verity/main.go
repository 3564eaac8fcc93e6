package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"xdao.co/verity/cidutil"
	"xdao.co/verity/config"
	"xdao.co/verity/internal/logx"
	"xdao.co/verity/keys"
	"xdao.co/verity/rpc"
	"xdao.co/verity/verity"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "verify":
		return cmdVerify(args[1:], in, out, errOut)
	case "encode":
		return cmdEncode(args[1:], in, out, errOut)
	case "decode":
		return cmdDecode(args[1:], out, errOut)
	case "id":
		return cmdID(args[1:], in, out, errOut)
	case "anchor":
		return cmdAnchor(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "verity: compliance attestation verifier")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  verity verify --config <file> [--deployment <name>] --attestation <file|-> --signature <hex> --caller <base58>")
	fmt.Fprintln(w, "                (--authenticated | --presentation <base64> --presented-at <unix>) [--now <unix>] [--explain]")
	fmt.Fprintln(w, "  verity verify --remote <host:port> --deployment <name> --attestation <file|-> --signature <hex> --caller <base58> --presentation <base64> --presented-at <unix>")
	fmt.Fprintln(w, "  verity encode --attestation <file|-> [--digest]")
	fmt.Fprintln(w, "  verity decode <hex>")
	fmt.Fprintln(w, "  verity id --attestation <file|->")
	fmt.Fprintln(w, "  verity anchor (--public-key <hex> | --private-key-file <path>)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - attestation files are JSON: {name, version, cluster, subject (base58), expiration (unix), schema}")
	fmt.Fprintln(w, "  - --signature is the issuer's 65-byte R||S||V hex; V may be 0..3 or 27..30")
	fmt.Fprintln(w, "  - --deployment falls back to $"+config.EnvDeployment+"; there is no default")
	fmt.Fprintln(w, "  - --authenticated asserts the caller already proved control of its identity")
	fmt.Fprintf(w, "  - a presentation only counts within %s of --now (or the system clock)\n", rpc.DefaultPresentationWindow)
	fmt.Fprintln(w, "  - verify exits 0 on accept, 1 on reject, 2 on usage errors")
}

func readAttestation(path string, in io.Reader) (verity.Attestation, error) {
	var a verity.Attestation
	if path == "" {
		return a, errors.New("missing --attestation")
	}
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(in)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return a, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return a, fmt.Errorf("attestation: %w", err)
	}
	return a, nil
}

func cmdVerify(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var configPath string
	var deployment string
	var attPath string
	var sigHex string
	var callerB58 string
	var authenticated bool
	var presentation string
	var presentedAt int64
	var nowUnix int64
	var explain bool
	var remote string
	var logLevel string
	var verbose bool

	fs.StringVar(&configPath, "config", "", "Deployment config file (YAML or .json)")
	fs.StringVar(&deployment, "deployment", "", "Deployment context (cluster) to verify for")
	fs.StringVar(&attPath, "attestation", "", "Attestation JSON file, or - for stdin")
	fs.StringVar(&sigHex, "signature", "", "Issuer signature, 65-byte hex")
	fs.StringVar(&callerB58, "caller", "", "Identity presenting the attestation (base58)")
	fs.BoolVar(&authenticated, "authenticated", false, "Caller authenticated the call")
	fs.StringVar(&presentation, "presentation", "", "Caller's ed25519 presentation signature (base64)")
	fs.Int64Var(&presentedAt, "presented-at", 0, "Unix time the caller signed --presentation")
	fs.Int64Var(&nowUnix, "now", 0, "Current unix time (defaults to the system clock)")
	fs.BoolVar(&explain, "explain", false, "On reject, list every violated rule")
	fs.StringVar(&remote, "remote", "", "Verify via a verityd server at host:port")
	fs.StringVar(&logLevel, "log-level", "", "debug|info|warn|error")
	fs.BoolVar(&verbose, "verbose", false, "Shorthand for --log-level debug")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if err := logx.Configure(logLevel, verbose); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	name, err := config.SelectDeployment(deployment)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if sigHex == "" || callerB58 == "" {
		fmt.Fprintln(errOut, "missing --signature or --caller")
		return 2
	}
	if presentation != "" && !set["presented-at"] {
		fmt.Fprintln(errOut, "--presentation requires --presented-at")
		return 2
	}
	att, err := readAttestation(attPath, in)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	if remote != "" {
		return verifyRemote(remote, rpc.VerifyRequest{
			Deployment:   name,
			Attestation:  att,
			Signature:    sigHex,
			Caller:       callerB58,
			Presentation: presentation,
			PresentedAt:  presentedAt,
		}, out, errOut)
	}

	if configPath == "" {
		fmt.Fprintln(errOut, "missing --config")
		return 2
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	v, err := cfg.Verifier(name)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	sig, err := verity.ParseSignature(sigHex)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --signature: %v\n", err)
		return 2
	}
	caller, err := verity.ParseIdentity(callerB58)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --caller: %v\n", err)
		return 2
	}
	if !set["now"] {
		nowUnix = time.Now().Unix()
	}
	if presentation != "" {
		authenticated = authenticated || rpc.VerifyPresentation(caller, name, att.Digest(), presentedAt,
			presentation, time.Unix(nowUnix, 0), rpc.DefaultPresentationWindow)
	}

	cc := verity.CallerContext{Identity: caller, Authenticated: authenticated, Now: nowUnix}
	id := cidutil.AttestationID(att)
	logx.Debugf("verify deployment=%s id=%s subject=%s now=%d", name, id, att.Subject, nowUnix)

	verr := v.Verify(sig, att, cc)
	if verr == nil {
		_, _ = fmt.Fprintf(out, "ACCEPT %s\n", id)
		return 0
	}
	printReject(out, verr)
	if explain {
		for _, e := range v.Explain(sig, att, cc) {
			_, _ = fmt.Fprintf(out, "  - %s %s: %v\n", verity.RuleID(e), verity.CodeOf(e), e)
		}
	}
	return 1
}

func printReject(out io.Writer, err error) {
	var e *verity.Error
	if errors.As(err, &e) {
		_, _ = fmt.Fprintf(out, "REJECT %s %s stage=%s: %s\n", e.Code, e.RuleID, e.Stage, e.Message)
		return
	}
	_, _ = fmt.Fprintf(out, "REJECT %v\n", err)
}

func verifyRemote(target string, req rpc.VerifyRequest, out io.Writer, errOut io.Writer) int {
	c, err := rpc.Dial(target, rpc.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", target, err)
		return 1
	}
	defer c.Close()
	c.Timeout = 10 * time.Second

	reply, err := c.Verify(context.Background(), req)
	if err != nil {
		fmt.Fprintf(errOut, "remote verify: %v\n", err)
		return 1
	}
	if reply.Accepted {
		_, _ = fmt.Fprintf(out, "ACCEPT %s\n", reply.AttestationID)
		return 0
	}
	_, _ = fmt.Fprintf(out, "REJECT %s %s stage=%s: %s\n", reply.Code, reply.RuleID, reply.Stage, reply.Message)
	return 1
}

func cmdEncode(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var attPath string
	var digest bool
	fs.StringVar(&attPath, "attestation", "", "Attestation JSON file, or - for stdin")
	fs.BoolVar(&digest, "digest", false, "Also print the keccak-256 digest")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	att, err := readAttestation(attPath, in)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	_, _ = fmt.Fprintln(out, hex.EncodeToString(verity.Encode(att)))
	if digest {
		_, _ = fmt.Fprintln(out, att.Digest())
	}
	return 0
}

func cmdDecode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: verity decode <hex>")
		return 2
	}
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(fs.Arg(0)), "0x"))
	if err != nil {
		fmt.Fprintf(errOut, "invalid hex: %v\n", err)
		return 2
	}
	a, err := verity.Decode(b)
	if err != nil {
		fmt.Fprintf(errOut, "decode: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

func cmdID(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var attPath string
	fs.StringVar(&attPath, "attestation", "", "Attestation JSON file, or - for stdin")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	att, err := readAttestation(attPath, in)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	_, _ = fmt.Fprintln(out, cidutil.AttestationID(att))
	return 0
}

func cmdAnchor(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("anchor", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var pubHex string
	var privFile string
	fs.StringVar(&pubHex, "public-key", "", "secp256k1 public key hex (33, 64 or 65 bytes)")
	fs.StringVar(&privFile, "private-key-file", "", "File holding the issuer's 32-byte private key hex")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var pk verity.PublicKey
	var err error
	switch {
	case pubHex != "" && privFile != "":
		fmt.Fprintln(errOut, "use only one of --public-key or --private-key-file")
		return 2
	case pubHex != "":
		pk, err = keys.ParsePublicKey(pubHex)
	case privFile != "":
		var b []byte
		b, err = os.ReadFile(privFile)
		if err == nil {
			pk, err = keys.PublicKeyFromPrivateHex(string(b))
		}
	default:
		fmt.Fprintln(errOut, "usage: verity anchor (--public-key <hex> | --private-key-file <path>)")
		return 2
	}
	if err != nil {
		fmt.Fprintf(errOut, "anchor: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(out, "trust_anchor: %s\n", keys.FormatPublicKey(pk))
	_, _ = fmt.Fprintf(out, "address: %s\n", keys.Address(pk))
	return 0
}

// Package config loads per-deployment verification settings.
//
// Each deployment context (cluster) names its own trust anchor and domain
// values, so one binary can serve several environments:
//
//	version: 1
//	deployments:
//	  mainnet-beta:
//	    trust_anchor: "8318535b…2aa5"
//	    trust_anchor_address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
//	  localnet:
//	    trust_anchor: "8318535b…2aa5"
//	    schema: centre.io/credentials/kyc
//
// name, version and schema default to the standard KYC domain. The cluster
// is always the deployment key and there is no default deployment.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"xdao.co/verity/keys"
	"xdao.co/verity/verity"
)

// EnvDeployment selects the deployment when no flag is given.
const EnvDeployment = "VERITY_DEPLOYMENT"

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

type Config struct {
	Version     int                   `yaml:"version,omitempty" json:"version,omitempty"`
	Deployments map[string]Deployment `yaml:"deployments" json:"deployments"`
}

type Deployment struct {
	// TrustAnchor is the issuer's secp256k1 public key in hex
	// (64-byte X||Y, 65-byte 0x04-prefixed or 33-byte compressed).
	TrustAnchor string `yaml:"trust_anchor" json:"trust_anchor"`
	// TrustAnchorAddress optionally pins the issuer's 0x-address; loading
	// fails if TrustAnchor does not hash to it.
	TrustAnchorAddress string `yaml:"trust_anchor_address,omitempty" json:"trust_anchor_address,omitempty"`

	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	Schema  string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// LoadFile reads a config file. Files ending in .json are JSON; anything
// else is YAML.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	return Parse(b, format)
}

// Parse decodes and validates a config document.
func Parse(data []byte, format Format) (Config, error) {
	var cfg Config
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("config: unknown format %q", format)
	}
	return cfg, cfg.Validate()
}

// Validate checks every deployment can build a Verifier.
func (c Config) Validate() error {
	switch c.Version {
	case 0, 1:
	default:
		return fmt.Errorf("config: unsupported version %d", c.Version)
	}
	if len(c.Deployments) == 0 {
		return errors.New("config: at least one deployment is required")
	}
	for _, name := range c.Names() {
		if _, err := c.Verifier(name); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the deployment names in sorted order.
func (c Config) Names() []string {
	out := make([]string, 0, len(c.Deployments))
	for name := range c.Deployments {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Domain returns the domain config for cluster with defaults applied.
func (d Deployment) Domain(cluster string) verity.DomainConfig {
	dc := verity.NewDomainConfig(cluster)
	if d.Name != "" {
		dc.Name = d.Name
	}
	if d.Version != "" {
		dc.Version = d.Version
	}
	if d.Schema != "" {
		dc.Schema = d.Schema
	}
	return dc
}

// Verifier builds the verifier for the named deployment.
func (c Config) Verifier(cluster string) (*verity.Verifier, error) {
	if strings.TrimSpace(cluster) == "" {
		return nil, errors.New("config: deployment name is required")
	}
	d, ok := c.Deployments[cluster]
	if !ok {
		return nil, fmt.Errorf("config: unknown deployment %q", cluster)
	}
	if d.TrustAnchor == "" {
		return nil, fmt.Errorf("config: deployment %q: trust_anchor is required", cluster)
	}
	anchor, err := keys.ParsePublicKey(d.TrustAnchor)
	if err != nil {
		return nil, fmt.Errorf("config: deployment %q: trust_anchor: %w", cluster, err)
	}
	if d.TrustAnchorAddress != "" && !keys.MatchesAddress(anchor, d.TrustAnchorAddress) {
		return nil, fmt.Errorf("config: deployment %q: trust_anchor hashes to %s, not %s",
			cluster, keys.Address(anchor), d.TrustAnchorAddress)
	}
	v, err := verity.NewVerifier(anchor, d.Domain(cluster))
	if err != nil {
		return nil, fmt.Errorf("config: deployment %q: %w", cluster, err)
	}
	return v, nil
}

// Verifiers builds a verifier for every deployment, keyed by name.
func (c Config) Verifiers() (map[string]*verity.Verifier, error) {
	out := make(map[string]*verity.Verifier, len(c.Deployments))
	for _, name := range c.Names() {
		v, err := c.Verifier(name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// SelectDeployment returns flagValue, or $VERITY_DEPLOYMENT when the flag is
// empty. Having neither is an error: a deployment is never guessed.
func SelectDeployment(flagValue string) (string, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvDeployment)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("config: no deployment selected (use --deployment or %s)", EnvDeployment)
}

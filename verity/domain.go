package verity

import "strings"

const (
	DefaultName    = "VerificationRegistry"
	DefaultVersion = "1.0"
	SchemaKYC      = "centre.io/credentials/kyc"
)

// Clusters the issuer tooling knows how to address. Informational only:
// any non-empty cluster is a valid deployment context.
var KnownClusters = []string{"mainnet-beta", "testnet", "devnet", "localnet"}

// DomainConfig holds the values an attestation's domain separator and schema
// must match for one deployment.
//
// Cluster has no default. A deployment that forgets to set it must fail to
// start rather than silently accept attestations minted for another context.
type DomainConfig struct {
	Name    string
	Version string
	Cluster string
	Schema  string
}

// NewDomainConfig returns the standard KYC domain for cluster.
func NewDomainConfig(cluster string) DomainConfig {
	return DomainConfig{
		Name:    DefaultName,
		Version: DefaultVersion,
		Cluster: cluster,
		Schema:  SchemaKYC,
	}
}

// Validate reports every empty field.
func (c DomainConfig) Validate() error {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Version == "" {
		missing = append(missing, "version")
	}
	if c.Cluster == "" {
		missing = append(missing, "cluster")
	}
	if c.Schema == "" {
		missing = append(missing, "schema")
	}
	if len(missing) > 0 {
		return newError(KindConfig, CodeInvalidConfig, "VERITY-CFG-001",
			"domain config missing: "+strings.Join(missing, ", "))
	}
	return nil
}

package distribution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/ssvlabs/validator-keysync/storage/keys"
)

const (
	ValidatorDefinitionsFile = "validator_definitions.yml"
	SignerKeysFile           = "signer_keys.yml"
	ProposerConfigFile       = "proposerConfig.json"

	signerTypeWeb3Signer = "web3signer"
)

// ValidatorDefinition is one entry of the Lighthouse validator definitions.
type ValidatorDefinition struct {
	Enabled               bool   `yaml:"enabled"`
	SuggestedFeeRecipient string `yaml:"suggested_fee_recipient"`
	Type                  string `yaml:"type"`
	URL                   string `yaml:"url"`
	VotingPublicKey       string `yaml:"voting_public_key"`
}

type feeRecipientConfig struct {
	FeeRecipient string `json:"fee_recipient"`
}

// ProposerConfig is the Prysm and Teku proposer settings file.
type ProposerConfig struct {
	ProposerConfig map[string]feeRecipientConfig `json:"proposer_config"`
	DefaultConfig  feeRecipientConfig            `json:"default_config"`
}

// Artifacts holds the rendered validator client configuration files.
type Artifacts struct {
	ValidatorDefinitions []byte
	SignerKeys           []byte
	ProposerConfig       []byte
}

func feeRecipientOrDefault(key keys.PublicKeyWithRecipient, defaultRecipient common.Address) string {
	if key.FeeRecipient != nil && *key.FeeRecipient != "" {
		return *key.FeeRecipient
	}
	return defaultRecipient.Hex()
}

// RenderValidatorDefinitions renders a YAML document listing every key as an
// enabled web3signer validator.
func RenderValidatorDefinitions(pubKeys []keys.PublicKeyWithRecipient, web3SignerURL string, defaultRecipient common.Address) ([]byte, error) {
	definitions := make([]ValidatorDefinition, 0, len(pubKeys))
	for _, key := range pubKeys {
		definitions = append(definitions, ValidatorDefinition{
			Enabled:               true,
			SuggestedFeeRecipient: feeRecipientOrDefault(key, defaultRecipient),
			Type:                  signerTypeWeb3Signer,
			URL:                   web3SignerURL,
			VotingPublicKey:       key.PublicKey,
		})
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(definitions); err != nil {
		return nil, fmt.Errorf("failed to encode validator definitions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode validator definitions: %w", err)
	}

	return buf.Bytes(), nil
}

// ParseValidatorDefinitions returns the voting public keys of a validator
// definitions file. Content that does not parse yields no keys.
func ParseValidatorDefinitions(data []byte) []string {
	var definitions []ValidatorDefinition
	if err := yaml.Unmarshal(data, &definitions); err != nil {
		return nil
	}

	pubKeys := make([]string, 0, len(definitions))
	for _, d := range definitions {
		pubKeys = append(pubKeys, d.VotingPublicKey)
	}
	return pubKeys
}

// RenderSignerKeys renders the external signer key list read by Teku and Prysm.
func RenderSignerKeys(pubKeys []keys.PublicKeyWithRecipient) []byte {
	quoted := make([]string, 0, len(pubKeys))
	for _, key := range pubKeys {
		quoted = append(quoted, `"`+key.PublicKey+`"`)
	}
	return []byte("validators-external-signer-public-keys: [" + strings.Join(quoted, ",") + "]\n")
}

func RenderProposerConfig(pubKeys []keys.PublicKeyWithRecipient, defaultRecipient common.Address) ([]byte, error) {
	config := ProposerConfig{
		ProposerConfig: make(map[string]feeRecipientConfig, len(pubKeys)),
		DefaultConfig:  feeRecipientConfig{FeeRecipient: defaultRecipient.Hex()},
	}
	for _, key := range pubKeys {
		config.ProposerConfig[key.PublicKey] = feeRecipientConfig{FeeRecipient: feeRecipientOrDefault(key, defaultRecipient)}
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode proposer config: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderArtifacts renders all files for one replica.
func RenderArtifacts(pubKeys []keys.PublicKeyWithRecipient, web3SignerURL string, defaultRecipient common.Address) (*Artifacts, error) {
	definitions, err := RenderValidatorDefinitions(pubKeys, web3SignerURL, defaultRecipient)
	if err != nil {
		return nil, err
	}

	proposerConfig, err := RenderProposerConfig(pubKeys, defaultRecipient)
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		ValidatorDefinitions: definitions,
		SignerKeys:           RenderSignerKeys(pubKeys),
		ProposerConfig:       proposerConfig,
	}, nil
}

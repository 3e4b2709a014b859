package morphogen

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/modalities.yaml
var modalityCapabilitiesYAML []byte

// Modality metadata philosophy:
//
// This table provides MODALITY METADATA for UX, pricing estimates, and
// informational purposes. It does NOT enforce validation - the backend is
// the source of truth.
//
// Use cases:
//  - Decide up front whether a modality token-streams
//  - Show prompt limits and output formats in UI
//  - Estimate credit costs
//
// The embedded table may lag behind the backend. Library users can
// override it by calling LoadModalityCapabilitiesFromFile() with custom
// YAML or RegisterModalityCapability() programmatically.

// ModalityCapability describes what one modality supports.
type ModalityCapability struct {
	// Streaming is true when the modality delivers token-by-token text;
	// false means a single complete response per generation.
	Streaming bool `yaml:"streaming"`

	// MaxPromptChars is the longest accepted prompt.
	MaxPromptChars int `yaml:"max_prompt_chars"`

	// OutputFormats lists the formats the backend can produce.
	OutputFormats []string `yaml:"output_formats"`

	// Unit and CreditsPerUnit describe pricing (informational).
	Unit           string  `yaml:"unit"`
	CreditsPerUnit float64 `yaml:"credits_per_unit"`
}

type modalityCapabilityFile struct {
	Version     string                          `yaml:"version"`
	LastUpdated string                          `yaml:"last_updated"`
	Modalities  map[Modality]ModalityCapability `yaml:"modalities"`
}

var (
	modalityCapabilities     map[Modality]ModalityCapability
	modalityCapabilitiesMu   sync.RWMutex
	modalityCapabilitiesOnce sync.Once
)

func loadEmbeddedModalityCapabilities() {
	modalityCapabilitiesOnce.Do(func() {
		var file modalityCapabilityFile
		if err := yaml.Unmarshal(modalityCapabilitiesYAML, &file); err != nil {
			// The embedded table ships with the library; a parse failure
			// is a build defect, not a runtime condition.
			panic(fmt.Sprintf("morphogen: embedded modality capabilities are invalid: %v", err))
		}
		modalityCapabilitiesMu.Lock()
		modalityCapabilities = file.Modalities
		modalityCapabilitiesMu.Unlock()
	})
}

// LookupModalityCapability returns the capability metadata for a modality.
func LookupModalityCapability(m Modality) (ModalityCapability, bool) {
	loadEmbeddedModalityCapabilities()

	modalityCapabilitiesMu.RLock()
	defer modalityCapabilitiesMu.RUnlock()
	c, ok := modalityCapabilities[m]
	return c, ok
}

// SupportsStreaming reports whether a modality delivers token-by-token
// text. Unknown modalities report false.
func SupportsStreaming(m Modality) bool {
	c, ok := LookupModalityCapability(m)
	return ok && c.Streaming
}

// LoadModalityCapabilitiesFromFile replaces the capability table with the
// contents of a YAML file in the embedded table's format.
func LoadModalityCapabilitiesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capabilities file: %w", err)
	}

	var file modalityCapabilityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse capabilities file: %w", err)
	}

	loadEmbeddedModalityCapabilities()
	modalityCapabilitiesMu.Lock()
	modalityCapabilities = file.Modalities
	modalityCapabilitiesMu.Unlock()
	return nil
}

// RegisterModalityCapability adds or replaces one modality's metadata.
func RegisterModalityCapability(m Modality, c ModalityCapability) {
	loadEmbeddedModalityCapabilities()

	modalityCapabilitiesMu.Lock()
	defer modalityCapabilitiesMu.Unlock()
	modalityCapabilities[m] = c
}

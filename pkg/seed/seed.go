// Package seed loads reference data (terms, rules, tracked elements,
// lineage and artifact sources) into a store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/unneeks/stewardagent/pkg/governance"
)

//go:embed default.yaml
var defaultDataset []byte

// Dataset is a complete set of reference data.
type Dataset struct {
	Terms     []governance.BusinessTerm       `yaml:"terms"`
	Rules     []governance.Rule               `yaml:"rules"`
	TDEs      []governance.TrackedDataElement `yaml:"tdes"`
	Lineage   []governance.LineageMapping     `yaml:"lineage"`
	Artifacts []governance.Artifact           `yaml:"artifacts"`
}

// Default returns the built-in dataset.
func Default() *Dataset {
	d, err := Parse(defaultDataset)
	if err != nil {
		panic(fmt.Sprintf("seed: built-in dataset is invalid: %v", err))
	}
	return d
}

// Parse decodes and validates a YAML dataset.
func Parse(data []byte) (*Dataset, error) {
	var d Dataset
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile reads and validates a YAML dataset from path.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Validate checks value ranges and that every reference resolves within
// the dataset.
func (d *Dataset) Validate() error {
	terms := map[string]bool{}
	for _, t := range d.Terms {
		if t.ID == "" {
			return &governance.ContractError{Field: "terms.id", Message: "term id is required"}
		}
		if err := governance.ValidateCriticality(t.Criticality); err != nil {
			return fmt.Errorf("term %s: %w", t.ID, err)
		}
		terms[t.ID] = true
	}
	for _, r := range d.Rules {
		if !terms[r.TermID] {
			return &governance.ContractError{Field: "rules.term", Message: fmt.Sprintf("rule %s references unknown term %q", r.ID, r.TermID)}
		}
		if err := governance.ValidateThreshold(r.Threshold); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}
	tdes := map[string]bool{}
	for _, t := range d.TDEs {
		if !terms[t.TermID] {
			return &governance.ContractError{Field: "tdes.term", Message: fmt.Sprintf("tde %s references unknown term %q", t.ID, t.TermID)}
		}
		tdes[t.ID] = true
	}
	fields := map[string]string{}
	for _, m := range d.Lineage {
		if !tdes[m.TDEID] {
			return &governance.ContractError{Field: "lineage.tde", Message: fmt.Sprintf("lineage references unknown tde %q", m.TDEID)}
		}
		key := m.ArtifactName + "." + m.FieldName
		if other, ok := fields[key]; ok {
			return &governance.ContractError{Field: "lineage", Message: fmt.Sprintf("%s mapped to both %s and %s", key, other, m.TDEID)}
		}
		fields[key] = m.TDEID
	}
	return nil
}

// Apply upserts the dataset into store. Re-applying is idempotent.
func (d *Dataset) Apply(ctx context.Context, store governance.ReferenceStore) error {
	logger := slog.Default().With("component", "seed")

	for i := range d.Terms {
		if err := store.UpsertTerm(ctx, &d.Terms[i]); err != nil {
			return err
		}
	}
	for i := range d.Rules {
		if err := store.UpsertRule(ctx, &d.Rules[i]); err != nil {
			return err
		}
	}
	for i := range d.TDEs {
		if err := store.UpsertTDE(ctx, &d.TDEs[i]); err != nil {
			return err
		}
	}
	for i := range d.Lineage {
		if err := store.UpsertLineage(ctx, &d.Lineage[i]); err != nil {
			return err
		}
	}
	for i := range d.Artifacts {
		if err := store.UpsertArtifact(ctx, &d.Artifacts[i]); err != nil {
			return err
		}
	}

	logger.Info("reference data loaded",
		"terms", len(d.Terms),
		"rules", len(d.Rules),
		"tdes", len(d.TDEs),
		"lineage", len(d.Lineage),
		"artifacts", len(d.Artifacts),
	)
	return nil
}

// WriteArtifacts writes each artifact source to dir/<name>.sql, the layout
// the lineage resolver reads with an artifact directory configured.
func (d *Dataset) WriteArtifacts(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	for _, a := range d.Artifacts {
		path := filepath.Join(dir, a.Name+".sql")
		if err := os.WriteFile(path, []byte(a.SourceText+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write artifact %s: %w", a.Name, err)
		}
	}
	return nil
}

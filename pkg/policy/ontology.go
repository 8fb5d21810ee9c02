// Package policy checks whether a governance rule's description covers the
// validations its semantic category requires.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed ontology.yaml
var defaultOntology []byte

// CategoryPolicy lists the validations one semantic category requires.
type CategoryPolicy struct {
	RequiredValidations []string `yaml:"required_validations" json:"required_validations"`
}

// Ontology maps semantic categories to their requirements. It is safe for
// concurrent use and can be swapped atomically by Reload.
type Ontology struct {
	mu         sync.RWMutex
	categories map[string]CategoryPolicy
	source     string
}

// ParseOntology decodes a YAML ontology document.
func ParseOntology(data []byte) (map[string]CategoryPolicy, error) {
	categories := map[string]CategoryPolicy{}
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parse ontology: %w", err)
	}
	for name, c := range categories {
		if len(c.RequiredValidations) == 0 {
			return nil, fmt.Errorf("parse ontology: category %q has no required_validations", name)
		}
	}
	return categories, nil
}

// DefaultOntology returns the built-in ontology.
func DefaultOntology() *Ontology {
	categories, err := ParseOntology(defaultOntology)
	if err != nil {
		panic(err)
	}
	return &Ontology{categories: categories, source: "embedded"}
}

// LoadOntology reads an ontology file.
func LoadOntology(path string) (*Ontology, error) {
	o := &Ontology{}
	if err := o.Reload(path); err != nil {
		return nil, err
	}
	return o, nil
}

// Reload replaces the ontology with the contents of path. On error the
// current ontology is kept.
func (o *Ontology) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read ontology %s: %w", path, err)
	}
	categories, err := ParseOntology(data)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.categories = categories
	o.source = path
	o.mu.Unlock()
	return nil
}

// Required returns the validations a category requires and whether the
// category is known.
func (o *Ontology) Required(category string) ([]string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c, ok := o.categories[category]
	if !ok {
		return nil, false
	}
	out := make([]string, len(c.RequiredValidations))
	copy(out, c.RequiredValidations)
	return out, true
}

// Categories returns the known category names, sorted.
func (o *Ontology) Categories() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.categories))
	for name := range o.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source names where the ontology was loaded from.
func (o *Ontology) Source() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.source
}

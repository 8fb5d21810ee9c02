// Package lineage maps tracked data elements to the transformation
// artifacts that compute them, and traces changeset impact along the same
// mapping.
package lineage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/unneeks/stewardagent/pkg/governance"
)

// Trace is a resolved lineage hit.
type Trace struct {
	TDEID        string `json:"tde_id"`
	ArtifactName string `json:"model_name"`
	FieldName    string `json:"column_name"`
	SourceText   string `json:"sql_text"`
	// SourcePath is set when the text was read from the artifact directory.
	SourcePath string `json:"source_path,omitempty"`
}

// Resolver looks up lineage. It does no computation of its own.
type Resolver struct {
	store       governance.ReferenceStore
	artifactDir string
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithArtifactDir makes <dir>/<artifact>.sql take precedence over the
// stored source text.
func WithArtifactDir(dir string) Option {
	return func(r *Resolver) { r.artifactDir = dir }
}

// NewResolver creates a Resolver.
func NewResolver(store governance.ReferenceStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		logger: slog.Default().With("component", "lineage"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the artifact and field computing tdeID. A missing
// mapping or missing artifact source is a miss (ok == false), not an error.
func (r *Resolver) Resolve(ctx context.Context, tdeID string) (*Trace, bool, error) {
	m, err := r.store.GetLineage(ctx, tdeID)
	if errors.Is(err, governance.ErrNotFound) {
		r.logger.Debug("no lineage mapping", "tde_id", tdeID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	trace := &Trace{
		TDEID:        m.TDEID,
		ArtifactName: m.ArtifactName,
		FieldName:    m.FieldName,
	}

	if r.artifactDir != "" {
		path := filepath.Join(r.artifactDir, m.ArtifactName+".sql")
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			trace.SourceText = string(data)
			trace.SourcePath = path
			return trace, true, nil
		case errors.Is(err, os.ErrNotExist):
			r.logger.Debug("artifact file not found, using stored source", "path", path)
		default:
			return nil, false, fmt.Errorf("read artifact %s: %w", path, err)
		}
	}

	a, err := r.store.GetArtifact(ctx, m.ArtifactName)
	if errors.Is(err, governance.ErrNotFound) {
		r.logger.Warn("lineage mapped to artifact with no source", "tde_id", tdeID, "model", m.ArtifactName)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	trace.SourceText = a.SourceText
	return trace, true, nil
}

// ImpactOfTerm traces a business term (ID or display name) down to the
// artifact fields that realize it.
func (r *Resolver) ImpactOfTerm(ctx context.Context, term string) ([]*governance.ImpactPath, error) {
	return r.store.ImpactOfTerm(ctx, term)
}

// ImpactOfArtifact traces an artifact up to the elements, terms and rules
// that depend on it.
func (r *Resolver) ImpactOfArtifact(ctx context.Context, artifact string) ([]*governance.ImpactPath, error) {
	return r.store.ImpactOfArtifact(ctx, artifact)
}

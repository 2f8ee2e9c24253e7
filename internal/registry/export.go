package registry

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"traind/internal/engine"
	"traind/pkg/types"
)

// Architecture maps carry nested composites; gob can only ship those
// inside an interface after registration.
func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// binArtifact is the gob-encoded payload of a bin export.
type binArtifact struct {
	UnitID         string
	Name           string
	Type           string
	Architecture   map[string]any
	InputShape     []int
	ParameterCount int
	ExportedAt     time.Time
	Weights        []engine.WeightSnapshot
}

// jsonArtifact is the interchange document consumed by the editor side.
type jsonArtifact struct {
	UnitID         string                  `json:"model_id"`
	Name           string                  `json:"name"`
	Type           string                  `json:"type"`
	Architecture   map[string]any          `json:"architecture"`
	InputShape     []int                   `json:"input_shape"`
	ParameterCount int                     `json:"parameter_count"`
	ExportedAt     time.Time               `json:"exported_at"`
	Weights        []engine.WeightSnapshot `json:"weights"`
}

// Export writes the unit's weights and shapes to
// <export_dir>/<id>.<format> and reports the artifact. A dummy forward
// pass runs first so an unbuildable graph fails the export, not a
// later consumer.
func (r *Registry) Export(id string, format types.ExportFormat) (types.ExportResult, error) {
	switch format {
	case types.ExportBin, types.ExportJSON:
	default:
		return types.ExportResult{}, ErrUnsupportedFormat(string(format))
	}

	r.mu.RLock()
	u, ok := r.units[id]
	if !ok {
		r.mu.RUnlock()
		return types.ExportResult{}, ErrUnitNotFound(id)
	}
	meta := u.meta
	net := u.net
	r.mu.RUnlock()

	// The running trainer owns the weights; snapshotting them mid-step
	// would tear.
	if meta.Status == types.UnitStatusTraining {
		return types.ExportResult{}, ErrConflict("model is training: " + id)
	}

	net.Forward(net.DummyInput(), false)

	if err := os.MkdirAll(r.exportDir, 0o755); err != nil {
		return types.ExportResult{}, fmt.Errorf("create export dir: %w", err)
	}
	path := r.artifactPath(id, format)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return types.ExportResult{}, fmt.Errorf("create artifact: %w", err)
	}
	switch format {
	case types.ExportBin:
		err = gob.NewEncoder(f).Encode(binArtifact{
			UnitID:         meta.ID,
			Name:           meta.Name,
			Type:           string(meta.Type),
			Architecture:   meta.Architecture,
			InputShape:     net.InputShape(),
			ParameterCount: meta.ParameterCount,
			ExportedAt:     time.Now().UTC(),
			Weights:        net.Snapshot(),
		})
	case types.ExportJSON:
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(jsonArtifact{
			UnitID:         meta.ID,
			Name:           meta.Name,
			Type:           string(meta.Type),
			Architecture:   meta.Architecture,
			InputShape:     net.InputShape(),
			ParameterCount: meta.ParameterCount,
			ExportedAt:     time.Now().UTC(),
			Weights:        net.Snapshot(),
		})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return types.ExportResult{}, fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return types.ExportResult{}, fmt.Errorf("write artifact: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return types.ExportResult{}, fmt.Errorf("stat artifact: %w", err)
	}
	r.log.Info().
		Str("model", id).
		Str("format", string(format)).
		Int64("bytes", info.Size()).
		Msg("model exported")
	return types.ExportResult{
		UnitID:    id,
		Format:    format,
		Path:      path,
		SizeBytes: info.Size(),
	}, nil
}

func (r *Registry) artifactPath(id string, format types.ExportFormat) string {
	return filepath.Join(r.exportDir, id+"."+string(format))
}

// removeArtifacts deletes any export files for id. Missing files are
// the normal case and not an error.
func (r *Registry) removeArtifacts(id string) {
	for _, format := range []types.ExportFormat{types.ExportBin, types.ExportJSON} {
		os.Remove(r.artifactPath(id, format))
	}
}

package types

import "time"

// UnitType identifies a trainable unit architecture family.
type UnitType string

const (
	UnitMLP UnitType = "mlp"
	UnitRNN UnitType = "rnn"
	UnitCNN UnitType = "cnn"
)

// UnitStatus tracks the coarse lifecycle of a trainable unit.
type UnitStatus string

const (
	UnitStatusCreated  UnitStatus = "created"
	UnitStatusTraining UnitStatus = "training"
	UnitStatusTrained  UnitStatus = "trained"
)

// TrainableUnit is the persisted metadata of one buildable network.
type TrainableUnit struct {
	// example: 7b1e6a0a-4f44-4c8a-9a5e-2f8d3f1c9b21
	ID string `json:"id" example:"7b1e6a0a-4f44-4c8a-9a5e-2f8d3f1c9b21"`
	// example: digit-classifier
	Name string `json:"name" example:"digit-classifier"`
	// example: mlp
	Type UnitType `json:"type" example:"mlp"`
	// Architecture parameters, builder-specific (layer sizes, channels, ...).
	Architecture map[string]any `json:"architecture"`
	// Free-form training hyperparameters stored alongside the unit.
	Hyperparameters map[string]any `json:"hyperparameters"`
	// Number of learnable parameters in the built network.
	// example: 109386
	ParameterCount int `json:"parameter_count" example:"109386"`
	// Device the unit was bound to at build time.
	// example: cuda:0
	DeviceID string `json:"device_id" example:"cuda:0"`
	// example: created
	Status UnitStatus `json:"status" example:"created"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUnitRequest is the payload for POST /api/v1/models.
type CreateUnitRequest struct {
	// example: digit-classifier
	Name string `json:"name" example:"digit-classifier"`
	// example: mlp
	Type UnitType `json:"type" example:"mlp"`
	// Optional architecture overrides; builder defaults fill the rest.
	Architecture map[string]any `json:"architecture,omitempty"`
	// Optional hyperparameter overrides.
	Hyperparameters map[string]any `json:"hyperparameters,omitempty"`
}

// UpdateUnitRequest is the payload for PUT /api/v1/models/{id}.
// Nil fields are left unchanged; a new architecture rebuilds the network.
type UpdateUnitRequest struct {
	Name            *string        `json:"name,omitempty"`
	Architecture    map[string]any `json:"architecture,omitempty"`
	Hyperparameters map[string]any `json:"hyperparameters,omitempty"`
}

// UnitListResponse wraps the paginated unit list.
type UnitListResponse struct {
	Models []TrainableUnit `json:"models"`
	// example: 12
	Total int `json:"total" example:"12"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// ExportFormat selects the artifact encoding for unit export.
type ExportFormat string

const (
	// ExportBin is the native binary encoding of shapes and weights.
	ExportBin ExportFormat = "bin"
	// ExportJSON is the interchange document consumed by the editor side.
	ExportJSON ExportFormat = "json"
)

// ExportRequest is the payload for POST /api/v1/models/{id}/export.
type ExportRequest struct {
	// example: json
	Format ExportFormat `json:"format" example:"json"`
}

// ExportResult reports a written export artifact.
type ExportResult struct {
	UnitID string       `json:"model_id"`
	Format ExportFormat `json:"format"`
	// Absolute path of the written artifact.
	Path string `json:"path"`
	// example: 438721
	SizeBytes int64 `json:"size_bytes" example:"438721"`
}

// BuilderInfo describes one compiled-in unit builder.
type BuilderInfo struct {
	// example: mlp
	ID string `json:"id" example:"mlp"`
	// example: Multi-Layer Perceptron
	Name        string `json:"name" example:"Multi-Layer Perceptron"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`
	// example: model_builder
	Type string `json:"plugin_type" example:"model_builder"`
	// Builders ship with the binary; there is no dynamic loading.
	// example: true
	Builtin bool `json:"builtin" example:"true"`
}

// BuilderListResponse wraps GET /api/v1/plugins.
type BuilderListResponse struct {
	Plugins []BuilderInfo `json:"plugins"`
	Total   int           `json:"total"`
}

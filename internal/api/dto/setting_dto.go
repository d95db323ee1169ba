package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateSettingRequest payload.
type CreateSettingRequest struct {
	Key             string  `json:"key" validate:"required,max=100"`
	Value           string  `json:"value"`
	DataType        string  `json:"dataType" validate:"required"`
	DisplayName     *string `json:"displayName" validate:"omitempty,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	Category        *string `json:"category" validate:"omitempty,max=50"`
	IsVisible       *bool   `json:"isVisible"`
	DefaultValue    *string `json:"defaultValue"`
	ValidationRules *string `json:"validationRules"`
}

// UpdateSettingRequest payload.
type UpdateSettingRequest struct {
	Value *string `json:"value" validate:"required"`
}

// BulkUpdateRequest payload.
type BulkUpdateRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}

// TestConnectionRequest payload.
type TestConnectionRequest struct {
	ConnectionType string `json:"connectionType" validate:"required"`
}

// SettingResponse renders one setting.
type SettingResponse struct {
	ID              string                 `json:"id"`
	Key             string                 `json:"key"`
	Value           string                 `json:"value"`
	DataType        domain.SettingDataType `json:"dataType"`
	DisplayName     *string                `json:"displayName,omitempty"`
	Description     *string                `json:"description,omitempty"`
	Category        *string                `json:"category,omitempty"`
	IsSystemSetting bool                   `json:"isSystemSetting"`
	IsVisible       bool                   `json:"isVisible"`
	DefaultValue    *string                `json:"defaultValue,omitempty"`
	ValidationRules *string                `json:"validationRules,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       *time.Time             `json:"updatedAt,omitempty"`
}

// SettingExportResponse is the downloadable export document.
type SettingExportResponse struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Settings   []SettingResponse `json:"settings"`
}

// ConnectionResultResponse reports a connectivity probe.
type ConnectionResultResponse struct {
	ConnectionType string `json:"connectionType"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	LatencyMS      int64  `json:"latencyMs"`
}

func FromSetting(s domain.SystemSetting) SettingResponse {
	return SettingResponse{
		ID:              s.ID,
		Key:             s.Key,
		Value:           s.Value,
		DataType:        s.DataType,
		DisplayName:     s.DisplayName,
		Description:     s.Description,
		Category:        s.Category,
		IsSystemSetting: s.IsSystemSetting,
		IsVisible:       s.IsVisible,
		DefaultValue:    s.DefaultValue,
		ValidationRules: s.ValidationRules,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// SettingsHandler manages /systemsettings.
type SettingsHandler struct {
	settings *service.SettingService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settingService *service.SettingService) *SettingsHandler {
	return &SettingsHandler{settings: settingService}
}

// List handles GET /systemsettings?category=.
func (h *SettingsHandler) List(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	settings, err := h.settings.List(c.UserContext(), rc, c.Query("category"))
	if err != nil {
		return err
	}
	return c.JSON(dto.SingleList(settings, dto.FromSetting))
}

// Get handles GET /systemsettings/:key.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	setting, err := h.settings.Get(c.UserContext(), rc, c.Params("key"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromSetting(*setting)})
}

// Create handles POST /systemsettings.
func (h *SettingsHandler) Create(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateSettingRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	setting, err := h.settings.Create(c.UserContext(), rc, service.SettingInput{
		Key:             req.Key,
		Value:           req.Value,
		DataType:        req.DataType,
		DisplayName:     req.DisplayName,
		Description:     req.Description,
		Category:        req.Category,
		IsVisible:       req.IsVisible,
		DefaultValue:    req.DefaultValue,
		ValidationRules: req.ValidationRules,
	})
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusCreated, "setting created", fiber.Map{"data": dto.FromSetting(*setting)})
}

// Update handles PUT /systemsettings/:key.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.UpdateSettingRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	setting, err := h.settings.Update(c.UserContext(), rc, c.Params("key"), *req.Value)
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, "setting updated", fiber.Map{"data": dto.FromSetting(*setting)})
}

// Bulk handles PUT /systemsettings/bulk.
func (h *SettingsHandler) Bulk(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.BulkUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	updated, failures, err := h.settings.BulkUpdate(c.UserContext(), rc, req.Settings)
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, fmt.Sprintf("%d settings updated", updated), fiber.Map{
		"updatedCount": updated,
		"errors":       failures,
	})
}

// ResetDefaults handles POST /systemsettings/reset-defaults.
func (h *SettingsHandler) ResetDefaults(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	keys, err := h.settings.ResetDefaults(c.UserContext(), rc)
	if err != nil {
		return err
	}
	return withMessage(c, fiber.StatusOK, fmt.Sprintf("%d settings reset to defaults", len(keys)), fiber.Map{"keys": keys})
}

// Export handles GET /systemsettings/export as a JSON download.
func (h *SettingsHandler) Export(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	export, err := h.settings.Export(c.UserContext(), rc)
	if err != nil {
		return err
	}
	settings := make([]dto.SettingResponse, 0, len(export.Settings))
	for _, s := range export.Settings {
		settings = append(settings, dto.FromSetting(s))
	}
	c.Attachment(fmt.Sprintf("system-settings-%s.json", export.ExportedAt.Format("20060102-150405")))
	return c.JSON(dto.SettingExportResponse{ExportedAt: export.ExportedAt, Settings: settings})
}

// Categories handles GET /systemsettings/categories.
func (h *SettingsHandler) Categories(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	categories, err := h.settings.Categories(c.UserContext(), rc)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categories})
}

// TestConnection handles POST /systemsettings/test-connection.
func (h *SettingsHandler) TestConnection(c *fiber.Ctx) error {
	rc, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.TestConnectionRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	result, err := h.settings.TestConnection(c.UserContext(), rc, req.ConnectionType)
	if err != nil {
		return err
	}
	status := "success"
	if !result.Success {
		status = "error"
	}
	return c.JSON(dto.ConnectionResultResponse{
		ConnectionType: result.Kind,
		Status:         status,
		Message:        result.Message,
		LatencyMS:      result.LatencyMS,
	})
}

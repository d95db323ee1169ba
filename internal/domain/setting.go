package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// SettingDataType declares how a setting value is interpreted.
type SettingDataType string

const (
	SettingTypeString  SettingDataType = "string"
	SettingTypeBoolean SettingDataType = "boolean"
	SettingTypeNumber  SettingDataType = "number"
	SettingTypeJSON    SettingDataType = "json"
)

// ParseSettingDataType accepts the four declared data types, case-insensitively.
func ParseSettingDataType(value string) (SettingDataType, bool) {
	switch SettingDataType(strings.ToLower(strings.TrimSpace(value))) {
	case SettingTypeString:
		return SettingTypeString, true
	case SettingTypeBoolean:
		return SettingTypeBoolean, true
	case SettingTypeNumber:
		return SettingTypeNumber, true
	case SettingTypeJSON:
		return SettingTypeJSON, true
	}
	return "", false
}

// ValidValue reports whether value parses as the declared type.
func (t SettingDataType) ValidValue(value string) bool {
	switch t {
	case SettingTypeBoolean:
		_, err := strconv.ParseBool(value)
		return err == nil
	case SettingTypeNumber:
		return validNumber(strings.TrimSpace(value))
	case SettingTypeJSON:
		return json.Valid([]byte(value))
	case SettingTypeString:
		return true
	}
	return false
}

// validNumber accepts finite decimal numbers only, so no hex floats, NaN or Inf.
func validNumber(value string) bool {
	if strings.IndexFunc(value, func(r rune) bool {
		return !strings.ContainsRune("0123456789+-.eE", r)
	}) >= 0 {
		return false
	}
	f, err := strconv.ParseFloat(value, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// SystemSetting is a global typed key/value. System settings are read-only.
type SystemSetting struct {
	ID              string
	Key             string
	Value           string
	DataType        SettingDataType
	DisplayName     *string
	Description     *string
	Category        *string
	IsSystemSetting bool
	IsVisible       bool
	DefaultValue    *string
	ValidationRules *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// Well-known setting keys.
const (
	SettingNotifyOnTicketCreate = "NOTIFY_ON_TICKET_CREATE"
	SettingNotifyOnStatusChange = "NOTIFY_ON_STATUS_CHANGE"
	SettingNotifyOnComment      = "NOTIFY_ON_COMMENT"
)

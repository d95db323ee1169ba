package domain

import "time"

// TicketType decides which form a ticket is raised with.
type TicketType struct {
	ID          string
	Name        string
	Description *string
	Icon        string
	Color       string
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Category groups modules (for example an ERP product line).
type Category struct {
	ID          string
	Name        string
	Description *string
	Icon        *string
	Color       *string
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Module is a screen or sub-system inside a category.
type Module struct {
	ID          string
	CategoryID  string
	Name        string
	Description *string
	Icon        *string
	Color       *string
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// FieldType is the input widget of a form field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeNumber   FieldType = "number"
	FieldTypeEmail    FieldType = "email"
	FieldTypeDate     FieldType = "date"
	FieldTypeFile     FieldType = "file"
)

// FieldTypes lists the supported widgets in display order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText, FieldTypeTextarea, FieldTypeSelect, FieldTypeCheckbox,
		FieldTypeRadio, FieldTypeNumber, FieldTypeEmail, FieldTypeDate, FieldTypeFile,
	}
}

// ValidFieldType reports whether value names a supported widget.
func ValidFieldType(value string) bool {
	for _, ft := range FieldTypes() {
		if string(ft) == value {
			return true
		}
	}
	return false
}

// FormField is a dynamically configured input belonging to one ticket type.
type FormField struct {
	ID              string
	TicketTypeID    string
	FieldName       string
	DisplayName     string
	FieldType       FieldType
	DefaultValue    *string
	PlaceholderText *string
	HelpText        *string
	IsRequired      bool
	SortOrder       int
	MinLength       *int
	MaxLength       *int
	ValidationRules *string
	Options         *string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

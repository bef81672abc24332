package metadata

type FieldType string

const (
	TypeString   FieldType = "string"
	TypeText     FieldType = "text"
	TypeRichText FieldType = "richtext"
	TypeEmail    FieldType = "email"
	TypeInteger  FieldType = "integer"
	TypeBoolean  FieldType = "boolean"
	TypeDate     FieldType = "date"
	TypeDateTime FieldType = "datetime"
	TypeJSON     FieldType = "json"
	TypeMedia    FieldType = "media"
	TypeRelation FieldType = "relation"
)

type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Unique   bool      `json:"unique,omitempty"`
	Default  any       `json:"default,omitempty"`
	Enum     []string  `json:"enum,omitempty"`
	Target   string    `json:"target,omitempty"` // relation target content type name
}

// IsPopulatable reports whether the field is only returned when populated.
func (f Field) IsPopulatable() bool {
	return f.Type == TypeMedia || f.Type == TypeRelation
}

// IsJSON reports whether the value is stored as a JSON document.
func (f Field) IsJSON() bool {
	return f.Type == TypeJSON || f.Type == TypeMedia
}

// IsTemporal reports whether the value is a date or timestamp.
func (f Field) IsTemporal() bool {
	return f.Type == TypeDate || f.Type == TypeDateTime
}

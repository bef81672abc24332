package metadata

import "fmt"

// Kind distinguishes collections from single types (one entry per locale).
type Kind string

const (
	CollectionType Kind = "collectionType"
	SingleType     Kind = "singleType"
)

// DefaultLocale is the locale written for single-type entries.
const DefaultLocale = "en"

type SlugConfig struct {
	Field  string `json:"field"`            // slug field name (must exist in fields, must be unique)
	Source string `json:"source,omitempty"` // auto-generate from this field when the slug is absent
}

// ContentType describes one API content type and the table that backs it.
type ContentType struct {
	Name            string      `json:"name"`        // singular API id, e.g. "home-hero"
	PluralName      string      `json:"plural_name"` // e.g. "courses"
	Kind            Kind        `json:"kind"`
	Table           string      `json:"table"`
	DraftAndPublish bool        `json:"draft_and_publish"`
	Slug            *SlugConfig `json:"slug,omitempty"`
	Fields          []Field     `json:"fields"`
	Rules           []*Rule     `json:"rules,omitempty"`
}

// systemAttributes maps API attribute names to the columns every table carries.
var systemAttributes = map[string]string{
	"id":          "id",
	"documentId":  "document_id",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"publishedAt": "published_at",
	"locale":      "locale",
}

// UID returns the content type uid, e.g. "api::course.course".
func (ct *ContentType) UID() string {
	return fmt.Sprintf("api::%s.%s", ct.Name, ct.Name)
}

// Route is the path segment the type is served under.
func (ct *ContentType) Route() string {
	if ct.IsSingle() {
		return ct.Name
	}
	return ct.PluralName
}

func (ct *ContentType) IsSingle() bool {
	return ct.Kind == SingleType
}

// GetField returns a pointer to the field with the given name, or nil.
func (ct *ContentType) GetField(name string) *Field {
	for i := range ct.Fields {
		if ct.Fields[i].Name == name {
			return &ct.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the type has a user field with the given name.
func (ct *ContentType) HasField(name string) bool {
	return ct.GetField(name) != nil
}

// FieldNames returns all user field names.
func (ct *ContentType) FieldNames() []string {
	names := make([]string, len(ct.Fields))
	for i, f := range ct.Fields {
		names[i] = f.Name
	}
	return names
}

// SystemColumns lists the managed columns present on this type's table.
func (ct *ContentType) SystemColumns() []string {
	cols := []string{"id", "document_id", "created_at", "updated_at"}
	if ct.DraftAndPublish {
		cols = append(cols, "published_at")
	}
	if ct.IsSingle() {
		cols = append(cols, "locale")
	}
	return cols
}

// Columns returns every column of the table: system columns first, then fields.
func (ct *ContentType) Columns() []string {
	return append(ct.SystemColumns(), ct.FieldNames()...)
}

// Column resolves an API attribute name (field or system attribute) to its column.
func (ct *ContentType) Column(attr string) (string, bool) {
	if ct.HasField(attr) {
		return attr, true
	}
	col, ok := systemAttributes[attr]
	if !ok {
		return "", false
	}
	for _, c := range ct.SystemColumns() {
		if c == col {
			return col, true
		}
	}
	return "", false
}

// Attribute maps a column back to its API attribute name.
func (ct *ContentType) Attribute(column string) string {
	for attr, col := range systemAttributes {
		if col == column && attr != col {
			return attr
		}
	}
	return column
}

// PopulatableFields returns the media and relation fields.
func (ct *ContentType) PopulatableFields() []Field {
	var fields []Field
	for _, f := range ct.Fields {
		if f.IsPopulatable() {
			fields = append(fields, f)
		}
	}
	return fields
}

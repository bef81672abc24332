package metadata

// Content type names.
const (
	HomeHero     = "home-hero"
	Course       = "course"
	Article      = "article"
	Expert       = "expert"
	Partner      = "partner"
	Event        = "event"
	Page         = "page"
	SiteIdentity = "site-identity"
	Topic        = "topic"
	Registration = "registration"
)

// ContentTypes returns the schema served by the CMS. Each call returns fresh
// values so callers may attach compiled rules without sharing state.
func ContentTypes() []*ContentType {
	return []*ContentType{
		{
			Name: HomeHero, PluralName: "home-heroes", Kind: SingleType, Table: "home_heroes",
			DraftAndPublish: true,
			Fields: []Field{
				{Name: "cohort_text", Type: TypeString},
				{Name: "title_main", Type: TypeString},
				{Name: "title_highlight", Type: TypeString},
				{Name: "description", Type: TypeText},
				{Name: "primary_button_text", Type: TypeString},
				{Name: "primary_button_link", Type: TypeString},
				{Name: "secondary_button_text", Type: TypeString},
				{Name: "secondary_button_link", Type: TypeString},
				{Name: "badge_left_text", Type: TypeString},
				{Name: "badge_right_text", Type: TypeString},
				{Name: "background_style", Type: TypeString, Enum: []string{"globe_animation", "image", "gradient"}},
				{Name: "hero_image", Type: TypeMedia},
			},
		},
		{
			Name: Course, PluralName: "courses", Kind: CollectionType, Table: "courses",
			DraftAndPublish: true,
			Slug:            &SlugConfig{Field: "slug", Source: "title"},
			Fields: []Field{
				{Name: "title", Type: TypeString, Required: true},
				{Name: "slug", Type: TypeString, Unique: true},
				{Name: "overview", Type: TypeText},
				{Name: "outcomes", Type: TypeJSON},
				{Name: "audience", Type: TypeString},
				{Name: "tools", Type: TypeJSON},
				{Name: "mode", Type: TypeString},
				{Name: "duration", Type: TypeString},
				{Name: "price", Type: TypeString},
				{Name: "schedule", Type: TypeString},
				{Name: "featured", Type: TypeBoolean, Default: false},
				{Name: "is_slideshow", Type: TypeBoolean, Default: false},
				{Name: "cover", Type: TypeMedia},
				{Name: "instructor", Type: TypeRelation, Target: Expert},
			},
		},
		{
			Name: Article, PluralName: "articles", Kind: CollectionType, Table: "articles",
			DraftAndPublish: true,
			Slug:            &SlugConfig{Field: "slug", Source: "title"},
			Fields: []Field{
				{Name: "title", Type: TypeString, Required: true},
				{Name: "slug", Type: TypeString, Unique: true},
				{Name: "excerpt", Type: TypeText},
				{Name: "description", Type: TypeText},
				{Name: "content", Type: TypeRichText},
				{Name: "category", Type: TypeString},
				{Name: "publish_date", Type: TypeDate},
				{Name: "external_link", Type: TypeString},
				{Name: "cover", Type: TypeMedia},
			},
		},
		{
			Name: Expert, PluralName: "experts", Kind: CollectionType, Table: "experts",
			DraftAndPublish: true,
			Fields: []Field{
				{Name: "name", Type: TypeString, Required: true},
				{Name: "role", Type: TypeString},
				{Name: "bio", Type: TypeText},
				{Name: "expertise", Type: TypeString},
				{Name: "experience", Type: TypeString},
				{Name: "consultations", Type: TypeString},
				{Name: "location", Type: TypeString},
				{Name: "skills", Type: TypeJSON},
				{Name: "linkedin", Type: TypeString},
				{Name: "facebook", Type: TypeString},
				{Name: "github", Type: TypeString},
				{Name: "website", Type: TypeString},
				{Name: "photo", Type: TypeMedia},
			},
		},
		{
			Name: Partner, PluralName: "partners", Kind: CollectionType, Table: "partners",
			DraftAndPublish: true,
			Fields: []Field{
				{Name: "name", Type: TypeString, Required: true},
				{Name: "website", Type: TypeString},
				{Name: "logo", Type: TypeMedia},
			},
		},
		{
			Name: Event, PluralName: "events", Kind: CollectionType, Table: "events",
			DraftAndPublish: true,
			Fields: []Field{
				{Name: "title", Type: TypeString, Required: true},
				{Name: "date", Type: TypeDateTime},
				{Name: "location", Type: TypeString},
				{Name: "description", Type: TypeText},
				{Name: "cover", Type: TypeMedia},
			},
		},
		{
			Name: Page, PluralName: "pages", Kind: CollectionType, Table: "pages",
			DraftAndPublish: true,
			Slug:            &SlugConfig{Field: "slug", Source: "title"},
			Fields: []Field{
				{Name: "title", Type: TypeString, Required: true},
				{Name: "slug", Type: TypeString, Unique: true},
				{Name: "content", Type: TypeRichText},
				{Name: "seo_title", Type: TypeString},
				{Name: "seo_description", Type: TypeText},
			},
		},
		{
			Name: SiteIdentity, PluralName: "site-identities", Kind: SingleType, Table: "site_identities",
			DraftAndPublish: true,
			Fields: []Field{
				{Name: "site_name", Type: TypeString},
				{Name: "alt_text", Type: TypeString},
				{Name: "logo", Type: TypeMedia},
				{Name: "favicon", Type: TypeMedia},
			},
		},
		{
			Name: Topic, PluralName: "topics", Kind: CollectionType, Table: "topics",
			DraftAndPublish: true,
			Slug:            &SlugConfig{Field: "slug", Source: "name"},
			Fields: []Field{
				{Name: "name", Type: TypeString, Required: true},
				{Name: "slug", Type: TypeString, Unique: true},
			},
		},
		{
			Name: Registration, PluralName: "registrations", Kind: CollectionType, Table: "registrations",
			Fields: []Field{
				{Name: "name", Type: TypeString, Required: true},
				{Name: "email", Type: TypeEmail, Required: true},
				{Name: "phone", Type: TypeString},
				{Name: "interest", Type: TypeString},
				{Name: "background", Type: TypeText},
			},
			Rules: []*Rule{
				{Type: RuleField, Definition: RuleDefinition{
					Field: "name", Operator: "max_length", Value: 200,
					Message: "name must be at most 200 characters",
				}},
				{Type: RuleExpression, Definition: RuleDefinition{
					Field:      "phone",
					Expression: `record.phone != nil && len(record.phone) > 32`,
					Message:    "phone must be at most 32 characters",
				}},
			},
		},
	}
}

// NewDefaultRegistry returns a registry holding ContentTypes.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(ContentTypes()...)
	return reg
}

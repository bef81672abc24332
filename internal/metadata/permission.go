package metadata

import "fmt"

// Content API actions.
const (
	ActionFind    = "find"
	ActionFindOne = "findOne"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
)

// ActionUID builds the permission action string, e.g. "api::course.course.findOne".
func ActionUID(contentType, action string) string {
	return fmt.Sprintf("api::%s.%s.%s", contentType, contentType, action)
}

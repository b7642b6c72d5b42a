// Package catalog models the read-only hierarchy of purchasable items:
// packs contain courses, courses contain lessons.
package catalog

// Kind classifies a catalog item.
type Kind string

const (
	KindLesson Kind = "lesson"
	KindCourse Kind = "course"
	KindPack   Kind = "pack"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindLesson, KindCourse, KindPack:
		return true
	default:
		return false
	}
}

// Item is a single catalog entry.
//
// ParentID links a lesson to its course and, optionally, a course to a pack.
// MemberIDs lists the course ids of a pack.
type Item struct {
	ID        string   `json:"id"                   yaml:"id"`
	Kind      Kind     `json:"kind"                 yaml:"kind"`
	Title     string   `json:"title,omitempty"      yaml:"title,omitempty"`
	ParentID  string   `json:"parent_id,omitempty"  yaml:"parent_id,omitempty"`
	MemberIDs []string `json:"member_ids,omitempty" yaml:"member_ids,omitempty"`
}

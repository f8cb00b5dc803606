package domain

import "strings"

// Project is a single portfolio entry shown in the public gallery.
// Projects are created once and never edited; the only other lifecycle
// event is removal.
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

// HasLink reports whether the project points at an external site.
func (p Project) HasLink() bool {
	return p.Link != ""
}

// Draft carries operator input for a project that has not been assigned an id yet.
type Draft struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

// Normalize trims surrounding whitespace from every field.
func (d Draft) Normalize() Draft {
	return Draft{
		Title:       strings.TrimSpace(d.Title),
		Category:    strings.TrimSpace(d.Category),
		Description: strings.TrimSpace(d.Description),
		Image:       strings.TrimSpace(d.Image),
		Link:        strings.TrimSpace(d.Link),
	}
}

// Validate performs the presence checks required before a draft is accepted.
func (d Draft) Validate() error {
	if d.Image == "" {
		return ErrImageRequired
	}
	return d.ValidateTitle()
}

// ValidateTitle checks everything Validate does except the image, for callers
// that still have an image to upload.
func (d Draft) ValidateTitle() error {
	if d.Title == "" {
		return ErrTitleRequired
	}
	return nil
}

// Build turns the draft into a project with the given id.
func (d Draft) Build(id string) Project {
	return Project{
		ID:          id,
		Title:       d.Title,
		Category:    d.Category,
		Description: d.Description,
		Image:       d.Image,
		Link:        d.Link,
	}
}

// Snapshot is the ordered project collection, oldest first.
type Snapshot []Project

// Clone returns an independent copy. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// IndexOf returns the position of the project with the given id, or -1.
func (s Snapshot) IndexOf(id string) int {
	for i, p := range s {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Without returns a copy of the snapshot with the given id removed.
func (s Snapshot) Without(id string) Snapshot {
	out := make(Snapshot, 0, len(s))
	for _, p := range s {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// Document is the wire shape of the remote store: {"projects": [...]}.
type Document struct {
	Projects Snapshot `json:"projects"`
}

// NewDocument wraps a snapshot, encoding an empty collection as [] rather than null.
func NewDocument(s Snapshot) Document {
	if s == nil {
		s = Snapshot{}
	}
	return Document{Projects: s}
}

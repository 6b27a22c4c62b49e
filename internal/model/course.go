package model

import "time"

// Course is a catalog entry users can enroll in.
//
// Syllabus is an ordered list of section titles. SQLite has no array type, so
// the repository stores it as a JSON-encoded TEXT column and decodes it on
// read — the order matters, so a join table would be overkill here.
type Course struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Category    string    `json:"category"    db:"category"`
	Level       string    `json:"level"       db:"level"`
	Thumbnail   string    `json:"thumbnail"   db:"thumbnail"`
	Description string    `json:"description" db:"description"`
	Syllabus    []string  `json:"syllabus"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// CourseRef is the compact course reference returned by the enrollment
// endpoint — enough for the client to confirm what it enrolled in without
// shipping the whole syllabus back.
type CourseRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Ref returns the compact reference for c.
func (c *Course) Ref() CourseRef {
	return CourseRef{ID: c.ID, Title: c.Title}
}

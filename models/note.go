package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tag is a named, colored label attached to a note
type Tag struct {
	Name  string `json:"name" validate:"required,max=64"`
	Color string `json:"color" validate:"max=32"`
}

// Note is a dated, tagged note owned by exactly one user. UserID is set at
// creation and never reassigned.
type Note struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Desc      string    `json:"desc" db:"description"`
	Tags      []Tag     `json:"tags" db:"tags"`
	Date      time.Time `json:"date" db:"date"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Note model
func (Note) TableName() string {
	return "notes"
}

// NewNote creates a new Note owned by userID. A zero date defaults to now.
func NewNote(userID uuid.UUID, title, desc string, tags []Tag, date time.Time) *Note {
	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}
	if tags == nil {
		tags = []Tag{}
	}
	return &Note{
		ID:        uuid.New(),
		Title:     title,
		Desc:      desc,
		Tags:      tags,
		Date:      date.UTC(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NotePatch is a partial note update. Nil fields are left unchanged; the owner
// is deliberately absent.
type NotePatch struct {
	Title *string
	Desc  *string
	Tags  *[]Tag
	Date  *time.Time
}

// Apply copies the set fields onto n and bumps UpdatedAt
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Desc != nil {
		n.Desc = *p.Desc
	}
	if p.Tags != nil {
		n.Tags = append([]Tag{}, (*p.Tags)...)
	}
	if p.Date != nil {
		n.Date = p.Date.UTC()
	}
	n.UpdatedAt = time.Now().UTC()
}

// noteDateLayouts are the accepted input formats for a note date
var noteDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseNoteDate parses a client-supplied note date. Both full timestamps and
// plain calendar dates (2024-01-01) are accepted.
func ParseNoteDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range noteDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", s)
}

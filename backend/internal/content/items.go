package content

import (
	"strings"
	"time"
)

// ItemType identifies a content item variant
type ItemType string

const (
	TypeEmail    ItemType = "email"
	TypeDocument ItemType = "document"
	TypeMeeting  ItemType = "meeting"
)

// Valid reports whether t is a known item type
func (t ItemType) Valid() bool {
	switch t {
	case TypeEmail, TypeDocument, TypeMeeting:
		return true
	}
	return false
}

// Email is an email message from the relational store
type Email struct {
	ID          string
	UserID      string
	Subject     string
	Sender      string
	Recipients  []string
	BodyText    string
	BodyHTML    string
	Snippet     string
	Category    string
	ReceivedAt  *time.Time
	IndexedAt   *time.Time
	GraphNodeID string
}

// Document is an uploaded or attached file from the relational store
type Document struct {
	ID             string
	UserID         string
	Filename       string
	FileType       string
	ContentText    string
	ContentSummary string
	CreatedAt      time.Time
	IndexedAt      *time.Time
	GraphNodeID    string
}

// Meeting is a recorded meeting from the relational store
type Meeting struct {
	ID           string
	UserID       string
	Title        string
	Transcript   string
	Summary      string
	Participants []string
	Topics       []string
	MeetingDate  *time.Time
	IndexedAt    *time.Time
	GraphNodeID  string
}

// Item is the uniform projection of a content item. The indexer's shared
// steps (skip rule, malformed check, embed-text assembly) operate on it; the
// type tag selects the node label.
type Item struct {
	ID      string
	UserID  string
	Type    ItemType
	Title   string
	Body    string
	Date    *time.Time
	Indexed bool
}

// Project returns the email's uniform indexing projection
func (e *Email) Project() Item {
	return Item{
		ID:      e.ID,
		UserID:  e.UserID,
		Type:    TypeEmail,
		Title:   e.Subject,
		Body:    e.BodyText,
		Date:    e.ReceivedAt,
		Indexed: e.IndexedAt != nil,
	}
}

// Project returns the document's uniform indexing projection
func (d *Document) Project() Item {
	created := d.CreatedAt
	return Item{
		ID:      d.ID,
		UserID:  d.UserID,
		Type:    TypeDocument,
		Title:   d.Filename,
		Body:    d.ContentText,
		Date:    &created,
		Indexed: d.IndexedAt != nil,
	}
}

// Project returns the meeting's uniform indexing projection
func (m *Meeting) Project() Item {
	body := m.Transcript
	if m.Summary != "" {
		body = strings.TrimSpace(m.Transcript + " " + m.Summary)
	}
	return Item{
		ID:      m.ID,
		UserID:  m.UserID,
		Type:    TypeMeeting,
		Title:   m.Title,
		Body:    body,
		Date:    m.MeetingDate,
		Indexed: m.IndexedAt != nil || m.GraphNodeID != "",
	}
}

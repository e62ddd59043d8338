package graph

import (
	"time"

	"recall/backend/internal/extract"
)

// Node labels in the knowledge graph
const (
	LabelEmail    = "Email"
	LabelDocument = "Document"
	LabelMeeting  = "Meeting"
	LabelPerson   = "Person"
	LabelTopic    = "Topic"
)

// Relationship types between nodes
const (
	RelSent      = "SENT"      // Person -> Email
	RelSentTo    = "SENT_TO"   // Email -> Person
	RelAttended  = "ATTENDED"  // Person -> Meeting
	RelMentions  = "MENTIONS"  // Email|Document -> Topic
	RelDiscusses = "DISCUSSES" // Meeting -> Topic
)

// RelevanceFloor is the minimum cosine similarity for a node to count as a
// match. Lower-scoring nodes are excluded outright, not down-ranked.
const RelevanceFloor = 0.5

// EmailUpsert carries all graph mutations for one email
type EmailUpsert struct {
	ID         string
	UserID     string
	Subject    string
	Category   string
	ReceivedAt *time.Time
	Embedding  []float32
	Sender     *extract.Person
	Recipients []extract.Person
	Topics     []string
}

// DocumentUpsert carries all graph mutations for one document
type DocumentUpsert struct {
	ID        string
	UserID    string
	Filename  string
	FileType  string
	Summary   string
	CreatedAt time.Time
	Embedding []float32
	Topics    []string
}

// MeetingUpsert carries all graph mutations for one meeting
type MeetingUpsert struct {
	ID           string
	UserID       string
	Title        string
	Summary      string
	MeetingDate  *time.Time
	Embedding    []float32
	Participants []extract.Person
	Topics       []string
}

// ScoredNode is one similarity search hit
type ScoredNode struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Score float64    `json:"score"`
	Date  *time.Time `json:"date,omitempty"`
}

// Node is a graph node in a visualization dump
type Node struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties"`
}

// Relationship is a directed typed edge in a visualization dump
type Relationship struct {
	SourceID   string                 `json:"source_id"`
	TargetID   string                 `json:"target_id"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

// Payload is a visualization dump of a user's knowledge graph
type Payload struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

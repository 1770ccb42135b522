package db

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStatus is returned for an unknown learning status.
	ErrInvalidStatus = errors.New("invalid status")
)

// DocumentStatus is the processing state of a document.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// Document represents an ingested text.
type Document struct {
	ID              string
	Title           string
	Author          string
	Origin          string
	Language        string
	TargetLanguage  string
	Content         string
	Status          DocumentStatus
	TotalWords      int
	UniqueLemmas    int
	TotalLemmas     int
	ProcessedLemmas int
	Error           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// Progress returns the processed share of lemmas as a percentage.
func (d Document) Progress() float64 {
	if d.Status == DocumentCompleted {
		return 100
	}
	if d.TotalLemmas <= 0 {
		return 0
	}
	p := float64(d.ProcessedLemmas) / float64(d.TotalLemmas) * 100
	if p > 100 {
		p = 100
	}
	return p
}

// Lemma is a dictionary headword shared by every document in its language.
type Lemma struct {
	ID          int64
	Lemma       string
	Language    string
	POS         string
	Translation string
	Definition  string
	Grammar     Grammar
	Frequency   int
	Difficulty  int
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LemmaInput carries the fields written by UpsertLemma.
type LemmaInput struct {
	Lemma       string
	Language    string
	POS         string
	Translation string
	Definition  string
	Grammar     map[string]string
	Frequency   int
	Difficulty  int
	Source      string
}

// Enrichment is the lexical information attached to a lemma after lookup.
type Enrichment struct {
	Translation string
	Definition  string
	POS         string
	Grammar     map[string]string
	Source      string
}

// Form is a surface spelling and how often it occurred.
type Form struct {
	Form  string `json:"form"`
	Count int    `json:"count"`
}

// DocumentLemma links a lemma to a document.
type DocumentLemma struct {
	DocumentID string
	LemmaID    int64
	Display    string
	Frequency  int
	Forms      []Form
}

// Occurrence is one sampled appearance of a lemma in a document.
type Occurrence struct {
	ID         int64
	DocumentID string
	LemmaID    int64
	Position   int
	Chapter    int
	Surface    string
	Context    string
}

// LearningStatus is the user's progress on a lemma.
type LearningStatus string

const (
	StatusNew      LearningStatus = "new"
	StatusLearning LearningStatus = "learning"
	StatusKnown    LearningStatus = "known"
	StatusIgnored  LearningStatus = "ignored"
)

// ParseLearningStatus accepts a status name or one of its aliases.
func ParseLearningStatus(s string) (LearningStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new", "unknown":
		return StatusNew, nil
	case "learning":
		return StatusLearning, nil
	case "known", "learned", "mastered":
		return StatusKnown, nil
	case "ignored", "ignore":
		return StatusIgnored, nil
	}
	return "", ErrInvalidStatus
}

// VocabEntry is a row of a document's vocabulary list.
type VocabEntry struct {
	Lemma
	Display      string
	DocFrequency int
	Forms        []Form
	Status       LearningStatus
}

// timeFormat has a fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func now() string {
	return time.Now().UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

package domain

import "time"

// TicketStatus enumerates lifecycle states for ingested messages.
// Transitions are monotonic: NEW -> PROCESSING -> {PROCESSED | ERROR}.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusProcessing TicketStatus = "PROCESSING"
	TicketStatusProcessed  TicketStatus = "PROCESSED"
	TicketStatusError      TicketStatus = "ERROR"
)

// Terminal reports whether a status is an end state.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusProcessed || s == TicketStatusError
}

// Sentiment enumerates classification outcomes.
type Sentiment string

const (
	SentimentAnger     Sentiment = "anger"
	SentimentConfusion Sentiment = "confusion"
	SentimentDelight   Sentiment = "delight"
	SentimentNeutral   Sentiment = "neutral"
)

// Sentiments lists the valid sentiments in display order.
var Sentiments = []Sentiment{SentimentAnger, SentimentConfusion, SentimentDelight, SentimentNeutral}

// Valid reports whether the sentiment is one of the known values.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentAnger, SentimentConfusion, SentimentDelight, SentimentNeutral:
		return true
	}
	return false
}

// TicketSource enumerates ingestion channels.
type TicketSource string

const (
	SourceEmail        TicketSource = "Email"
	SourceFormContact  TicketSource = "Form_Contact"
	SourceFormFeedback TicketSource = "Form_Feedback"
	SourceFormSupport  TicketSource = "Form_Support"
	SourceFormCustom   TicketSource = "Form_Custom"
)

// MaxKeywords bounds the keyword list stored per processed ticket.
const MaxKeywords = 5

// Ticket is one ingested customer message plus its processing state.
// Sentiment, Summary, Confidence and Keywords are written atomically with
// the transition to PROCESSED and are never present otherwise.
type Ticket struct {
	ID          string
	Source      TicketSource
	Sender      string
	Subject     string
	Message     string
	Status      TicketStatus
	Sentiment   *Sentiment
	Summary     *string
	Confidence  *float64
	Keywords    []string
	CreatedAt   time.Time
	ProcessedAt *time.Time
	RawMetadata map[string]any
}

// Classification carries the four fields set together on the PROCESSED
// transition.
type Classification struct {
	Sentiment  Sentiment
	Summary    string
	Confidence float64
	Keywords   []string
}

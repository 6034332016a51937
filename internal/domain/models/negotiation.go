// internal/domain/models/negotiation.go
package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stage is the pipeline position of a Negotiation.
type Stage string

const (
	StageLead          Stage = "lead"
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageClosedWon     Stage = "closed-won"
	StageClosedLost    Stage = "closed-lost"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageLead,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// ErrUnknownStage is returned by ParseStage for anything outside Stages.
var ErrUnknownStage = errors.New("unknown negotiation stage")

// ParseStage converts raw input to a Stage. Surrounding whitespace and case
// are ignored; any other deviation is rejected.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	if st.Valid() {
		return st, nil
	}
	return "", ErrUnknownStage
}

// Valid reports whether s is one of the six pipeline stages.
func (s Stage) Valid() bool {
	for _, v := range Stages {
		if s == v {
			return true
		}
	}
	return false
}

// Order returns the zero-based pipeline position, or -1 when invalid.
func (s Stage) Order() int {
	for i, v := range Stages {
		if s == v {
			return i
		}
	}
	return -1
}

func (s Stage) String() string { return string(s) }

// Note types.
const (
	NoteGeneral     = "note"
	NoteStageChange = "stage_change"
)

// Note is one entry in a negotiation's history.
type Note struct {
	Text      string    `bson:"text" json:"text"`
	Author    string    `bson:"author" json:"author"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Type      string    `bson:"type" json:"type"`
}

// DefaultProbability is the win probability assigned to a new lead.
const DefaultProbability = 25

// Negotiation tracks one Client through the sales pipeline. Version is a
// monotonic counter bumped on every write and checked on stage updates.
type Negotiation struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID        primitive.ObjectID `bson:"client_id" json:"clientId"`
	AffiliateID     primitive.ObjectID `bson:"affiliate_id" json:"affiliateId"`
	Stage           Stage              `bson:"stage" json:"stage"`
	EstimatedValue  float64            `bson:"estimated_value" json:"estimatedValue"`
	Probability     int                `bson:"probability" json:"probability"`
	Notes           []Note             `bson:"notes" json:"notes"`
	LastContactDate *time.Time         `bson:"last_contact_date,omitempty" json:"lastContactDate,omitempty"`
	NextFollowUp    *time.Time         `bson:"next_follow_up,omitempty" json:"nextFollowUp,omitempty"`
	Version         int64              `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

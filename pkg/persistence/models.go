package persistence

import (
	"time"

	"github.com/google/uuid"

	"discoverycoach/pkg/coach"
)

// StrategicInitiativeTemplate is a reusable template for strategic
// initiative documents.
//
//nolint:govet // struct alignment optimization not critical for this type
type StrategicInitiativeTemplate struct {
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Content           string         `json:"content"`
	StrategicContext  string         `json:"strategic_context,omitempty"`
	CustomerSegment   string         `json:"customer_segment,omitempty"`
	DesiredOutcomes   string         `json:"desired_outcomes,omitempty"`
	LeadingIndicators string         `json:"leading_indicators,omitempty"`
	Metadata          map[string]any `json:"metadata"`
	Tags              []string       `json:"tags"`
}

// EpicTemplate is a reusable template for epic documents, optionally linked
// to a parent strategic initiative template.
//
//nolint:govet // struct alignment optimization not critical for this type
type EpicTemplate struct {
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	ID                      int64          `json:"id"`
	StrategicInitiativeID   *int64         `json:"strategic_initiative_id,omitempty"`
	Name                    string         `json:"name"`
	Content                 string         `json:"content"`
	EpicHypothesisStatement string         `json:"epic_hypothesis_statement,omitempty"`
	BusinessOutcome         string         `json:"business_outcome,omitempty"`
	LeadingIndicators       string         `json:"leading_indicators,omitempty"`
	Metadata                map[string]any `json:"metadata"`
	Tags                    []string       `json:"tags"`
}

// FeatureTemplate is a reusable template for feature documents, optionally
// linked to a parent epic template.
//
//nolint:govet // struct alignment optimization not critical for this type
type FeatureTemplate struct {
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	ID                 int64          `json:"id"`
	EpicID             *int64         `json:"epic_id,omitempty"`
	Name               string         `json:"name"`
	Content            string         `json:"content"`
	BenefitHypothesis  string         `json:"benefit_hypothesis,omitempty"`
	AcceptanceCriteria string         `json:"acceptance_criteria,omitempty"`
	WSJF               string         `json:"wsjf,omitempty"`
	Metadata           map[string]any `json:"metadata"`
	Tags               []string       `json:"tags"`
}

// StoryTemplate is a reusable template for user stories, optionally linked to
// a parent feature template.
//
//nolint:govet // struct alignment optimization not critical for this type
type StoryTemplate struct {
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	ID                 int64          `json:"id"`
	FeatureID          *int64         `json:"feature_id,omitempty"`
	Name               string         `json:"name"`
	Content            string         `json:"content"`
	Description        string         `json:"description,omitempty"`
	AcceptanceCriteria string         `json:"acceptance_criteria,omitempty"`
	Metadata           map[string]any `json:"metadata"`
	Tags               []string       `json:"tags"`
}

// StrategicInitiative is an actual work item, as opposed to a template.
//
//nolint:govet // struct alignment optimization not critical for this type
type StrategicInitiative struct {
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Objective  string         `json:"objective,omitempty"`
	KeyResults string         `json:"key_results,omitempty"`
	Milestones string         `json:"milestones,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	Tags       []string       `json:"tags"`
}

// TemplateSummary is the listing view of a template: identity and timestamps
// without the full content.
//
//nolint:govet // struct alignment optimization not critical for this type
type TemplateSummary struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        int64     `json:"id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags"`
}

// ListFilter narrows template listings. Zero value lists everything up to
// the default limit.
type ListFilter struct {
	Search   string // substring match on name or content
	ParentID *int64 // restrict to children of one parent template
	Limit    int
	Offset   int
}

// DefaultListLimit caps listings when the filter does not set one.
const DefaultListLimit = 100

func (f ListFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Session is a saved coaching conversation: the artifact focus, the active
// artifact names, and the transcript.
//
//nolint:govet // struct alignment optimization not critical for this type
type Session struct {
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	ID               string              `json:"id"`
	Focus            coach.ArtifactFocus `json:"focus"`
	ActiveInitiative string              `json:"active_initiative,omitempty"`
	ActiveEpic       string              `json:"active_epic,omitempty"`
	ActiveFeature    string              `json:"active_feature,omitempty"`
	History          []coach.Message     `json:"history"`
}

// GenerateSessionID generates a new UUID for a session.
func GenerateSessionID() string {
	return uuid.New().String()
}

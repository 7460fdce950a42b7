// Package session models the document-analysis workflow as an explicit
// finite-state machine instead of ambient UI flags: a session moves
// Idle → Analyzed → EmailRequested → AutomationComplete and every step
// validates the transition.
package session

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/docinsight-cli/internal/model"
	"github.com/sells-group/docinsight-cli/pkg/automation"
)

// Stage is the workflow position of a session.
type Stage int

const (
	StageIdle Stage = iota
	StageAnalyzed
	StageEmailRequested
	StageAutomationComplete
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAnalyzed:
		return "analyzed"
	case StageEmailRequested:
		return "email_requested"
	case StageAutomationComplete:
		return "automation_complete"
	default:
		return "unknown"
	}
}

// Session carries the state of one analysis workflow between steps. It is
// a plain value holder — the analyzer and automation clients do the work.
type Session struct {
	ID             string
	DocumentText   string
	Question       string
	Insight        *model.StructuredInsight
	RecipientEmail string
	Automation     *automation.TriggerResponse

	stage Stage
}

// New creates an idle session.
func New() *Session {
	return &Session{
		ID:    uuid.NewString(),
		stage: StageIdle,
	}
}

// Stage returns the session's current workflow stage.
func (s *Session) Stage() Stage {
	return s.stage
}

// MarkAnalyzed records a completed analysis. Only legal from Idle.
func (s *Session) MarkAnalyzed(documentText, question string, insight *model.StructuredInsight) error {
	if s.stage != StageIdle {
		return eris.Errorf("session: cannot analyze from stage %s", s.stage)
	}
	if insight == nil {
		return eris.New("session: nil insight")
	}
	s.DocumentText = documentText
	s.Question = question
	s.Insight = insight
	s.stage = StageAnalyzed
	return nil
}

// RequestEmail records the recipient for the alert email. Only legal once
// an analysis exists.
func (s *Session) RequestEmail(recipient string) error {
	if s.stage != StageAnalyzed {
		return eris.Errorf("session: cannot request email from stage %s", s.stage)
	}
	if recipient == "" {
		return eris.New("session: recipient email required")
	}
	s.RecipientEmail = recipient
	s.stage = StageEmailRequested
	return nil
}

// CompleteAutomation records the webhook result. Only legal after an email
// was requested.
func (s *Session) CompleteAutomation(result *automation.TriggerResponse) error {
	if s.stage != StageEmailRequested {
		return eris.Errorf("session: cannot complete automation from stage %s", s.stage)
	}
	if result == nil {
		return eris.New("session: nil automation result")
	}
	s.Automation = result
	s.stage = StageAutomationComplete
	return nil
}

// AutomationPayload builds the webhook payload from the session's state.
func (s *Session) AutomationPayload() automation.TriggerRequest {
	return automation.TriggerRequest{
		DocumentText:   s.DocumentText,
		Question:       s.Question,
		StructuredData: s.Insight,
		RecipientEmail: s.RecipientEmail,
	}
}

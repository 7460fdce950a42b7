package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docinsight-cli/internal/model"
	"github.com/sells-group/docinsight-cli/pkg/automation"
)

func testInsight() *model.StructuredInsight {
	return &model.StructuredInsight{Summary: "s", RiskLevel: model.RiskLow}
}

func TestSession_FullWorkflow(t *testing.T) {
	s := New()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StageIdle, s.Stage())

	require.NoError(t, s.MarkAnalyzed("text", "question", testInsight()))
	assert.Equal(t, StageAnalyzed, s.Stage())

	require.NoError(t, s.RequestEmail("ops@example.com"))
	assert.Equal(t, StageEmailRequested, s.Stage())

	payload := s.AutomationPayload()
	assert.Equal(t, "text", payload.DocumentText)
	assert.Equal(t, "question", payload.Question)
	assert.Equal(t, "ops@example.com", payload.RecipientEmail)
	require.NotNil(t, payload.StructuredData)
	assert.Equal(t, "s", payload.StructuredData.Summary)

	result := &automation.TriggerResponse{EmailStatus: "sent"}
	require.NoError(t, s.CompleteAutomation(result))
	assert.Equal(t, StageAutomationComplete, s.Stage())
	assert.Equal(t, result, s.Automation)
}

func TestSession_InvalidTransitions(t *testing.T) {
	s := New()

	// Nothing is legal from Idle except analysis.
	assert.Error(t, s.RequestEmail("a@b.c"))
	assert.Error(t, s.CompleteAutomation(&automation.TriggerResponse{}))

	require.NoError(t, s.MarkAnalyzed("t", "q", testInsight()))

	// Re-analyzing a finished session is rejected.
	assert.Error(t, s.MarkAnalyzed("t", "q", testInsight()))
	// Automation before an email was requested is rejected.
	assert.Error(t, s.CompleteAutomation(&automation.TriggerResponse{}))

	require.NoError(t, s.RequestEmail("a@b.c"))
	assert.Error(t, s.RequestEmail("a@b.c"))

	require.NoError(t, s.CompleteAutomation(&automation.TriggerResponse{}))
	assert.Error(t, s.CompleteAutomation(&automation.TriggerResponse{}))
}

func TestSession_Validation(t *testing.T) {
	s := New()
	assert.Error(t, s.MarkAnalyzed("t", "q", nil))

	require.NoError(t, s.MarkAnalyzed("t", "q", testInsight()))
	assert.Error(t, s.RequestEmail(""))

	require.NoError(t, s.RequestEmail("a@b.c"))
	assert.Error(t, s.CompleteAutomation(nil))
}

func TestSession_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, New().ID, New().ID)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "idle", StageIdle.String())
	assert.Equal(t, "analyzed", StageAnalyzed.String())
	assert.Equal(t, "email_requested", StageEmailRequested.String())
	assert.Equal(t, "automation_complete", StageAutomationComplete.String())
	assert.Equal(t, "unknown", Stage(99).String())
}

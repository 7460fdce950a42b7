package analyzer

import (
	"fmt"

	"github.com/sells-group/docinsight-cli/pkg/openrouter"
)

// maxDocumentChars caps how much document text is embedded in the analysis
// prompt. The cut is character-level, not token-aware; longer documents are
// silently truncated.
const maxDocumentChars = 6000

const analysisSystemText = "You MUST return ONLY valid JSON. No explanations."

const analysisTemplate = `Return JSON in EXACTLY this format:
{
  "key_points": ["point 1", "point 2"],
  "risk_level": "Low | Medium | High",
  "risk_reason": "string",
  "summary": "string"
}

User Question:
%s

Document Text:
%s`

const repairSystemText = "Fix and return ONLY valid JSON."

// BuildAnalysisPrompt constructs the two-message analysis prompt: a system
// instruction demanding JSON-only output and a user message embedding the
// fixed output schema, the question verbatim, and the (truncated) document.
// Deterministic, no I/O.
func BuildAnalysisPrompt(documentText, question string) []openrouter.Message {
	return []openrouter.Message{
		{Role: "system", Content: analysisSystemText},
		{Role: "user", Content: fmt.Sprintf(analysisTemplate, question, truncateRunes(documentText, maxDocumentChars))},
	}
}

// BuildRepairPrompt wraps a raw, unsanitized model response in a prompt
// asking the model to fix its own output.
func BuildRepairPrompt(raw string) []openrouter.Message {
	return []openrouter.Message{
		{Role: "system", Content: repairSystemText},
		{Role: "user", Content: raw},
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

package ai

import (
	"fmt"
	"strings"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

const systemInstruction = `You are a professional content writer working inside an editor.
Return only the requested text, with no preamble and no commentary.`

func persona(agent *models.Agent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write as %q, a %s.", agent.Name, agent.Role)
	if agent.Tone != "" {
		fmt.Fprintf(&b, " Tone: %s.", agent.Tone)
	}
	if agent.Instructions != "" {
		fmt.Fprintf(&b, "\nStanding instructions: %s", agent.Instructions)
	}
	return b.String()
}

// BuildDraftPrompt asks for a first draft of task.
func BuildDraftPrompt(agent *models.Agent, task *models.Task) string {
	var b strings.Builder
	b.WriteString(persona(agent))
	fmt.Fprintf(&b, "\n\nTitle: %s\nBrief: %s", task.Title, task.Brief)
	if task.Keywords != "" {
		fmt.Fprintf(&b, "\nKeywords: %s", task.Keywords)
	}
	if task.TargetWordCount > 0 {
		fmt.Fprintf(&b, "\nLength: about %d words", task.TargetWordCount)
	}
	return b.String()
}

// BuildEditPrompt asks for a revision of the whole content.
func BuildEditPrompt(agent *models.Agent, content, instruction string) string {
	return fmt.Sprintf("%s\n\nRevise the text below. %s\n\n---\n%s", persona(agent), instruction, content)
}

// BuildRephrasePrompt asks for a rewrite of a selected passage only.
func BuildRephrasePrompt(agent *models.Agent, selection, instruction string) string {
	if instruction == "" {
		instruction = "Rephrase it to read more clearly while keeping its meaning."
	}
	return fmt.Sprintf("%s\n\nRewrite only this passage. %s\n\n---\n%s", persona(agent), instruction, selection)
}

// EstimateTokens is a rough pre-check size for a prompt: about four characters
// per token for the prompt, doubled to leave room for the answer.
func EstimateTokens(prompt string) int {
	return (len(prompt)/4 + 1) * 2
}

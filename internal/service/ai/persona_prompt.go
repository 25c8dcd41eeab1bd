package ai

import (
	"fmt"
	"strings"

	"github.com/Lusa1101/FutureMe-Live/internal/model/persona"
)

const genericIdentity = "You are a warm, supportive AI companion. Listen closely and respond with empathy."

// BuildSystemPrompt 组装系统提示词：人格身份、当前情绪指令、对话规则。
// Unknown moods use the persona's default instruction; the result is never empty.
func BuildSystemPrompt(p persona.Persona, mood string) string {
	identity := strings.TrimSpace(p.Identity)
	if identity == "" {
		identity = genericIdentity
	}

	instruction, _ := p.MoodInstruction(mood)
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = "Be emotionally responsive to how the user is feeling and meet them where they are."
	}

	var b strings.Builder
	b.WriteString(identity)
	b.WriteString("\n\nCURRENT MOOD CONTEXT: ")
	b.WriteString(instruction)
	if rules := strings.TrimSpace(p.Rules); rules != "" {
		b.WriteString("\n\n")
		b.WriteString(rules)
	}
	return b.String()
}

const wisdomSystemPrompt = `You are an expert at extracting meaningful wisdom and life lessons from conversational text. Your task is to find the most inspirational, motivational, or wise statement from the given response that would work well as a motivational quote.

INSTRUCTIONS:
- Extract wisdom directly from the provided text. Do not invent new quotes or generic sayings
- Prefer explicit wisdom lines, then metaphors that connect the conversation to broader life lessons, then encouraging advice
- Avoid pure jokes, questions directed at the user and greetings
- Keep it concise but impactful (1-3 sentences maximum)
- If no suitable wisdom is found, return an empty string

Return only the quote, with no additional text.`

func wisdomUserPrompt(text string) string {
	return fmt.Sprintf("Response to analyze:\n%q\n\nExtract the wisdom as a clean, standalone quote:", text)
}

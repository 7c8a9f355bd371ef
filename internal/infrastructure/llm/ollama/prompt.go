package ollama

import (
	"fmt"
	"strings"

	"github.com/bovicare/bovicare/internal/core/domain"
)

const answerSystemPrompt = "You are a veterinary assistant specializing in bovine diseases. Answer questions for farmers and veterinarians using only the provided context. Always recommend consulting a veterinarian for diagnosis and treatment decisions."

func buildAnswerPrompt(question string, candidates []domain.Candidate) string {
	var contextBuilder strings.Builder
	for idx, cand := range candidates {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] disease=%s type=%s section=%s\n%s\n\n",
			idx+1,
			cand.DiseaseName,
			cand.DiseaseType,
			cand.SectionType,
			cand.Text,
		))
	}

	return fmt.Sprintf(`Answer the question using only the context below.
If the context is insufficient, say so directly instead of guessing.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}

func buildClassificationPrompt(text string) string {
	const maxSnippet = 4000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are a bovine disease document classifier.
Return a strict JSON object with keys:
disease_name (string), disease_type (string: viral, bacterial, parasitic, metabolic or other), tags (array of strings), related (array of disease names mentioned alongside the main one), confidence (number from 0 to 1), summary (string).
No markdown, no extra keys.

Document:
` + snippet
}

package rag

import (
	"context"
	"errors"
	"strings"
	"text/template"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

const promptTemplate = `Use the following pieces of context to answer the question at the end.
Answer only from the context. If the context does not contain the answer, say that you don't know.

Context: {{.Context}}

User's Question: {{.Question}}`

var prompt = template.Must(template.New("prompt").Parse(promptTemplate))

type promptData struct {
	Context  string
	Question string
}

// ComposePrompt fills the fixed template with the retrieved context and the
// question. Nothing else is substituted.
func ComposePrompt(query, retrieved string) string {
	var b strings.Builder
	// the template is static and both fields are strings, Execute cannot fail
	_ = prompt.Execute(&b, promptData{Context: retrieved, Question: query})
	return b.String()
}

// GenerateResponse makes one completion call. On failure no partial text is
// returned.
func (s *service) GenerateResponse(ctx context.Context, query, retrieved string) (string, error) {
	answer, err := s.llmProvider.Complete(ctx, ComposePrompt(query, retrieved))
	if err != nil {
		return "", commonModels.GenerationError("complete", err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", commonModels.GenerationError("complete", errors.New("model returned an empty answer"))
	}
	return answer, nil
}

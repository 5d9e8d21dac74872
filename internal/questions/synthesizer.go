package questions

import (
	"context"
	"fmt"
	"strings"

	"contract-backend/internal/llm"
	"contract-backend/internal/retrieval"
)

// NoRelevantAnswer is returned when retrieval finds nothing above threshold.
// The synthesizer never asks the model to answer from an empty context.
const NoRelevantAnswer = "No relevant information found in the provided documents."

const synthesizerSystemPrompt = `You are a contract analysis assistant. Answer the question using only the provided context passages. Each passage is labeled with its page number and character range. If the context does not contain the answer, say so plainly. Do not invent clauses, dates, or amounts that are not in the context.`

// Synthesizer composes grounded answers from retrieved chunks.
type Synthesizer struct {
	LLM llm.Client
}

// Answer produces a grounded answer and its citations in one blocking call.
func (s *Synthesizer) Answer(ctx context.Context, query string, results []retrieval.Result) (string, []Citation, error) {
	if len(results) == 0 {
		return NoRelevantAnswer, []Citation{}, nil
	}

	answer, err := s.LLM.Complete(ctx, buildMessages(query, results))
	if err != nil {
		return "", nil, err
	}
	return answer, citationsFrom(results), nil
}

// AnswerStream produces a grounded answer token by token. The accumulated
// text so far is returned even on error, so callers can persist partial
// answers after cancellation. Citations come from the retrieved chunks,
// never from model output.
func (s *Synthesizer) AnswerStream(ctx context.Context, query string, results []retrieval.Result, emit func(token string) error) (string, []Citation, error) {
	if len(results) == 0 {
		if err := emit(NoRelevantAnswer); err != nil {
			return "", []Citation{}, err
		}
		return NoRelevantAnswer, []Citation{}, nil
	}

	answer, err := s.LLM.CompleteStream(ctx, buildMessages(query, results), emit)
	if err != nil {
		return answer, nil, err
	}
	return answer, citationsFrom(results), nil
}

func buildMessages(query string, results []retrieval.Result) []llm.Message {
	var context strings.Builder
	for _, r := range results {
		fmt.Fprintf(&context, "(Page %d, chars %d-%d): %s\n", r.PageNumber, r.Start, r.End, r.Text)
	}

	user := fmt.Sprintf("Context:\n%s\nQuestion: %s\n\nAnswer (reference page and character ranges where relevant):", context.String(), query)
	return []llm.Message{
		{Role: "system", Content: synthesizerSystemPrompt},
		{Role: "user", Content: user},
	}
}

func citationsFrom(results []retrieval.Result) []Citation {
	citations := make([]Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, Citation{
			DocumentID: r.DocumentID,
			PageNumber: r.PageNumber,
			Start:      r.Start,
			End:        r.End,
			ChunkID:    r.ChunkID,
			Score:      r.Score,
		})
	}
	return citations
}

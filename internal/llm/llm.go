// Package llm provides the text-generation client used for column
// enrichment and natural-language SQL generation.
package llm

import "context"

// Client generates free-form text from a prompt. Implementations block
// until the service responds or ctx is done.
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

package llm

// estimateTokens provides a rough estimate of tokens in text
func estimateTokens(text string) int {
	// Rough estimate: 1 token ≈ 4 characters for English text
	return len(text) / 4
}

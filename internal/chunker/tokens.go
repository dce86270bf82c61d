package chunker

import "regexp"

var latinWord = regexp.MustCompile(`\b[a-zA-Z]+\b`)

// EstimateTokens approximates the token count of text for budget checks.
// Each CJK character counts as one token and each Latin word as one
// token. It is a sizing heuristic, not a tokenizer.
func EstimateTokens(text string) int {
	cjk := 0
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			cjk++
		}
	}
	return cjk + len(latinWord.FindAllString(text, -1))
}

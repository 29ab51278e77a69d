package types

// Answer is the synthesized reply: a short summary plus ordered steps.
type Answer struct {
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
}

// Source is the primary citation of an answer. Every field may be null.
type Source struct {
	Book    *string `json:"book"`
	Chapter *string `json:"chapter"`
	Page    *int    `json:"page"`
	PDFURL  *string `json:"pdfUrl"`
}

// Confidence counts retrieved passages above the similarity threshold. It is
// a heuristic, not a probability.
type Confidence struct {
	MatchedPrinciples int `json:"matchedPrinciples"`
	TotalPrinciples   int `json:"totalPrinciples"`
}

type AnswerResult struct {
	ID         string     `json:"id"`
	Answer     Answer     `json:"answer"`
	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence"`
}

package model

// DepRole is a dependency label of a token relative to its governing token.
type DepRole string

const (
	DepRelativeClause   DepRole = "relcl"
	DepPreposition      DepRole = "prep"
	DepNominalSubject   DepRole = "nsubj"
	DepPassiveSubject   DepRole = "nsubjpass"
	DepDirectObject     DepRole = "dobj"
	DepPrepositionalObj DepRole = "pobj"
	DepRoot             DepRole = "ROOT"
)

// Token is one word of an analyzed sentence.
// Head, Lefts and Rights are indices into Sentence.Tokens.
// Lefts and Rights keep the order the analyzer reports them in.
type Token struct {
	Index  int     `json:"i"`
	Text   string  `json:"text"`
	Lemma  string  `json:"lemma"`
	Dep    DepRole `json:"dep"`
	Head   int     `json:"head"`
	Lefts  []int   `json:"lefts"`
	Rights []int   `json:"rights"`
}

// Sentence is the dependency structure of one sentence.
type Sentence struct {
	Tokens []Token `json:"tokens"`
}

// HasDependencies reports whether any token carries a dependency role.
func (s Sentence) HasDependencies() bool {
	for _, t := range s.Tokens {
		if t.Dep != "" {
			return true
		}
	}
	return false
}

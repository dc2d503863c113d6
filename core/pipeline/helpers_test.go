package pipeline

import "github.com/siherrmann/docgraph/model"

// livesInSentence is the parse of "Alice lives in Paris."
func livesInSentence() model.Sentence {
	return model.Sentence{Tokens: []model.Token{
		{Index: 0, Text: "Alice", Lemma: "Alice", Dep: model.DepNominalSubject, Head: 1},
		{Index: 1, Text: "lives", Lemma: "live", Dep: model.DepRoot, Head: 1, Lefts: []int{0}, Rights: []int{2, 4}},
		{Index: 2, Text: "in", Lemma: "in", Dep: model.DepPreposition, Head: 1, Rights: []int{3}},
		{Index: 3, Text: "Paris", Lemma: "Paris", Dep: model.DepPrepositionalObj, Head: 2},
		{Index: 4, Text: ".", Lemma: ".", Dep: "punct", Head: 1},
	}}
}

// capitalSentence is the parse of "Paris is the capital of France."
// The preposition hangs off "capital", which has no subject, so it yields nothing.
func capitalSentence() model.Sentence {
	return model.Sentence{Tokens: []model.Token{
		{Index: 0, Text: "Paris", Lemma: "Paris", Dep: model.DepNominalSubject, Head: 1},
		{Index: 1, Text: "is", Lemma: "be", Dep: model.DepRoot, Head: 1, Lefts: []int{0}, Rights: []int{3, 6}},
		{Index: 2, Text: "the", Lemma: "the", Dep: "det", Head: 3},
		{Index: 3, Text: "capital", Lemma: "capital", Dep: "attr", Head: 1, Lefts: []int{2}, Rights: []int{4}},
		{Index: 4, Text: "of", Lemma: "of", Dep: model.DepPreposition, Head: 3, Rights: []int{5}},
		{Index: 5, Text: "France", Lemma: "France", Dep: model.DepPrepositionalObj, Head: 4},
		{Index: 6, Text: ".", Lemma: ".", Dep: "punct", Head: 1},
	}}
}

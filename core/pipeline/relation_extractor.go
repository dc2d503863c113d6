package pipeline

import (
	"fmt"

	"github.com/siherrmann/docgraph/model"
)

var (
	relationRoles = map[model.DepRole]bool{
		model.DepRelativeClause: true,
		model.DepPreposition:    true,
	}
	subjectRoles = map[model.DepRole]bool{
		model.DepNominalSubject: true,
		model.DepPassiveSubject: true,
	}
	objectRoles = map[model.DepRole]bool{
		model.DepDirectObject:     true,
		model.DepPrepositionalObj: true,
	}
)

// ExtractRelations runs the dependency heuristic over analyzed sentences.
//
// For every token with a relative clause or prepositional role, the first
// subject among the left dependents of its head and the first object among
// its own right dependents form the triple (subject, head lemma, object).
// Tokens without both candidates yield nothing. The result is deduplicated
// and keeps the order of first emission.
//
// Sentences that carry tokens but no dependency roles at all mean the
// recognizer cannot parse, which is reported as model.ErrCapabilityUnavailable.
func ExtractRelations(sentences []model.Sentence) ([]model.Relation, error) {
	relations := []model.Relation{}
	seen := map[model.Relation]bool{}

	hasTokens := false
	hasDependencies := false
	for _, sentence := range sentences {
		if len(sentence.Tokens) == 0 {
			continue
		}
		hasTokens = true
		if !sentence.HasDependencies() {
			continue
		}
		hasDependencies = true

		for _, relation := range sentenceRelations(sentence) {
			if seen[relation] {
				continue
			}
			seen[relation] = true
			relations = append(relations, relation)
		}
	}

	if hasTokens && !hasDependencies {
		return nil, fmt.Errorf("%w: analysis has no dependency roles", model.ErrCapabilityUnavailable)
	}

	return relations, nil
}

func sentenceRelations(sentence model.Sentence) []model.Relation {
	tokens := sentence.Tokens
	var relations []model.Relation

	for _, token := range tokens {
		if !relationRoles[token.Dep] {
			continue
		}

		head, ok := tokenAt(tokens, token.Head)
		if !ok {
			continue
		}

		subject, ok := firstWithRole(tokens, head.Lefts, subjectRoles)
		if !ok {
			continue
		}
		object, ok := firstWithRole(tokens, token.Rights, objectRoles)
		if !ok {
			continue
		}

		relations = append(relations, model.Relation{
			Subject:   subject.Text,
			Predicate: head.Lemma,
			Object:    object.Text,
		})
	}

	return relations
}

// firstWithRole returns the first dependent in the given order that has one of the roles.
// Indices outside the sentence are skipped.
func firstWithRole(tokens []model.Token, dependents []int, roles map[model.DepRole]bool) (model.Token, bool) {
	for _, i := range dependents {
		t, ok := tokenAt(tokens, i)
		if ok && roles[t.Dep] {
			return t, true
		}
	}
	return model.Token{}, false
}

func tokenAt(tokens []model.Token, i int) (model.Token, bool) {
	if i < 0 || i >= len(tokens) {
		return model.Token{}, false
	}
	return tokens[i], true
}

package pipeline

import "github.com/siherrmann/docgraph/model"

// Knowledge is the deduplicated output of one normalization pass.
type Knowledge struct {
	Entities  []model.CanonicalEntity
	Relations []model.CanonicalRelation
	Conflicts []model.LabelConflict
}

// Normalize folds mentions into canonical entities and resolves relations against them.
//
// Mentions sharing a key collapse into one entity; the first-seen label and name win,
// each later mention with another label is recorded as a conflict. Relations whose
// subject or object is not a recognized entity are dropped, the rest are deduplicated
// on (subject key, predicate, object key). Both outputs keep first-seen order.
func Normalize(mentions []model.EntityMention, relations []model.Relation) *Knowledge {
	k := &Knowledge{
		Entities:  []model.CanonicalEntity{},
		Relations: []model.CanonicalRelation{},
		Conflicts: []model.LabelConflict{},
	}

	labels := map[string]model.EntityType{}
	for _, m := range mentions {
		key := model.EntityKey(m.Text)
		if key == "" {
			continue
		}

		label, ok := labels[key]
		if !ok {
			labels[key] = m.Label
			k.Entities = append(k.Entities, model.CanonicalEntity{
				Key:   key,
				Label: m.Label,
				Name:  m.Text,
			})
			continue
		}

		if label != m.Label {
			k.Conflicts = append(k.Conflicts, model.LabelConflict{
				Key:      key,
				Text:     m.Text,
				Kept:     label,
				Rejected: m.Label,
			})
		}
	}

	seen := map[model.CanonicalRelation]bool{}
	for _, r := range relations {
		subjectKey := model.EntityKey(r.Subject)
		objectKey := model.EntityKey(r.Object)

		subjectLabel, ok := labels[subjectKey]
		if !ok {
			continue
		}
		objectLabel, ok := labels[objectKey]
		if !ok {
			continue
		}

		relation := model.CanonicalRelation{
			SubjectKey:   subjectKey,
			Predicate:    r.Predicate,
			ObjectKey:    objectKey,
			SubjectLabel: subjectLabel,
			ObjectLabel:  objectLabel,
		}
		if seen[relation] {
			continue
		}
		seen[relation] = true
		k.Relations = append(k.Relations, relation)
	}

	return k
}

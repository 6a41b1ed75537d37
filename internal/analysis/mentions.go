package analysis

import "regexp"

// mentionPattern matches a name on word boundaries, so "DESA" does
// not match inside "desalination".
func mentionPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}

// MentioningParagraphs returns the paragraphs that mention the entity
// by either its short or long name. Nil when nothing matches.
func MentioningParagraphs(paras []Paragraph, short, long string) []Paragraph {
	if len(paras) == 0 {
		return nil
	}
	var patterns []*regexp.Regexp
	if short != "" {
		patterns = append(patterns, mentionPattern(short))
	}
	if long != "" {
		patterns = append(patterns, mentionPattern(long))
	}
	if len(patterns) == 0 {
		return nil
	}

	var matches []Paragraph
	for _, p := range paras {
		if p.Text == "" {
			continue
		}
		for _, pat := range patterns {
			if pat.MatchString(p.Text) {
				matches = append(matches, p)
				break
			}
		}
	}
	return matches
}

// Augment attaches the derived recurrence actions and per-entity
// mention lists to each mandate record, in place.
func Augment(records []MandateRecord, outdated []OutdatedCitation, entityLong map[string]string) {
	type actionKey struct {
		symbol string
		entity string
	}
	lookup := make(map[actionKey]RecurrenceAction, len(outdated))
	for _, oc := range outdated {
		lookup[actionKey{symbol: oc.CitedSymbol, entity: oc.Entity}] = RecurrenceAction{
			Entity:            oc.Entity,
			NewerCitedSymbols: oc.NewerCitedSymbols,
			LatestSymbol:      oc.LatestSymbol,
			GroupTitle:        oc.GroupTitle,
		}
	}

	for i := range records {
		rec := &records[i]

		var actions []RecurrenceAction
		for _, entity := range rec.Entities {
			if a, ok := lookup[actionKey{symbol: rec.FullDocumentSymbol, entity: entity}]; ok {
				actions = append(actions, a)
			}
		}
		rec.RecurrenceActions = actions

		mentions := make(map[string][]Paragraph)
		for _, entity := range rec.Entities {
			if m := MentioningParagraphs(rec.Paragraphs, entity, entityLong[entity]); m != nil {
				mentions[entity] = m
			}
		}
		if len(mentions) > 0 {
			rec.EntityMentions = mentions
		} else {
			rec.EntityMentions = nil
		}
	}
}

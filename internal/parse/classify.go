package parse

import "regexp"

// Classification regexes. The cascade below checks them in a fixed
// order; several patterns overlap, so reordering changes results.
var (
	reAnnex       = regexp.MustCompile(`^Annex\s[IVXLCDM]+`)
	reRomanNumber = regexp.MustCompile(`^[IVXL]+\.\s`)
	reArabicDot   = regexp.MustCompile(`^\d+\.\s`)
	reLetterDot   = regexp.MustCompile(`^[A-Z]\.\s`)
	reSubprog     = regexp.MustCompile(`^Subprogramme\s\d+`)
	reSubprogBare = regexp.MustCompile(`^Subprogramme\s\d+\s*$`)
	reTableNumber = regexp.MustCompile(`^Table\s\d+[A-Z]?\.([IVXLCDM]+\.)?\d+`)
	reFigureNum   = regexp.MustCompile(`^Figure\s\d+[A-Z]?\.[IVXLCDM]+`)
	reParenWordSp = regexp.MustCompile(`^\(\w\)\s`)
	reParenAny    = regexp.MustCompile(`\((\w|\d+)\)\s`)
	reParaNumber  = regexp.MustCompile(`^\d+[A-Z]?\.([IVXLCDM]+\.)?\d*\s`)
	reParenRoman  = regexp.MustCompile(`^\([ivxl]+\)\s`)
	reParenWord   = regexp.MustCompile(`\(\w\)\s`)
	reBracketed   = regexp.MustCompile(`^\(.*\)$`)
	reHeadingText = regexp.MustCompile(`^Overall orientation|Programme of work$`)
	reSubHeadText = regexp.MustCompile(`^(Mandates and background|Objective|Strategy and external factors for \d+|Legislative mandates|Deliverables|Evaluation activities|Programme performance in \d+|Planned results for \d+|Overview|Explanation of variances by factor|Overall resource changes)$`)
	reResolutions = regexp.MustCompile(`^.*resolutions?$`)
	reNoPunct     = regexp.MustCompile(`^[A-Za-z].*[A-Za-z0-9()]$`)
)

// Roman-numeral headers that look like entity groups but are section
// apparatus, not entities.
var nonEntityHeadings = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^[IVXL]+\.\s*Resource overview`),
	regexp.MustCompile(`(?i)^[IVXL]+\.\s*Cross-cutting information`),
	regexp.MustCompile(`(?i)^[IVXL]+\.\s*Special political missions`),
	regexp.MustCompile(`(?i)^[IVXL]+\.\s*Overview`),
	regexp.MustCompile(`(?i)^[IVXL]+\.\s*Executive direction`),
	regexp.MustCompile(`(?i)^[IVXL]+\.\s*Policymaking organs`),
	regexp.MustCompile(`(?i)^[IVXL]+\.\s*Management and support`),
}

// Classify maps one paragraph's observable attributes to a block type.
// text must already be trimmed. The function is total: anything that
// matches no rule is Other. Style-specific rules come first; the
// trailing text-only rules catch elements whose style metadata is
// missing or wrong.
func Classify(text, styleID string, italic, hasImage bool) BlockType {
	// Annex I, II: checked before the roman-numeral heading rules.
	if reAnnex.MatchString(text) {
		return Annex
	}

	switch styleID {
	case "HCh":
		// Roman numerals: I., XIV.
		if reRomanNumber.MatchString(text) {
			for _, re := range nonEntityHeadings {
				if re.MatchString(text) {
					return Heading
				}
			}
			return EntityGroup
		}
		// 1., 2., 3.
		if reArabicDot.MatchString(text) {
			return Entity
		}
		// A., B., C.
		if reLetterDot.MatchString(text) {
			return AB
		}
		return Heading
	case "H1":
		// Subprogramme 1
		if reSubprog.MatchString(text) {
			return Subprogramme
		}
		return HeadingSub
	case "H23":
		// Table 1.54
		if reTableNumber.MatchString(text) {
			return Table
		}
		// Figure 1.55
		if reFigureNum.MatchString(text) {
			return Figure
		}
		// (a), (b), (c)
		if reParenWordSp.MatchString(text) {
			return List1
		}
		return HeadingSubSub
	case "H4":
		// (a), (b), (c); (1), (2), (3)
		if reParenAny.MatchString(text) {
			return List2
		}
		if italic {
			return Italic
		}
		return HeadingSubSubSub
	}

	// 1.53
	if reParaNumber.MatchString(text) || styleID == "ListParagraph" {
		return Paragraph1
	}
	// (i), (ii), (iii)
	if reParenRoman.MatchString(text) {
		return Paragraph3
	}
	// (a), (b), (c)
	if reParenWord.MatchString(text) {
		return Paragraph2
	}
	// (in brackets)
	if reBracketed.MatchString(text) {
		return Note
	}
	// Entity groups with missing or wrong styles.
	if reRomanNumber.MatchString(text) {
		return EntityGroup
	}
	// A/B headers with missing or wrong styles.
	if reLetterDot.MatchString(text) {
		return AB
	}
	// Subprogrammes with missing or wrong styles.
	if reSubprogBare.MatchString(text) {
		return Subprogramme
	}
	if reHeadingText.MatchString(text) {
		return Heading
	}
	if reSubHeadText.MatchString(text) {
		return HeadingSub
	}
	if reResolutions.MatchString(text) {
		return Italic
	}
	// Header-ish line without trailing punctuation.
	if reNoPunct.MatchString(text) {
		return HeadingX
	}
	if hasImage {
		return Image
	}
	return Other
}

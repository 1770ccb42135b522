package language

// german capitalizes every noun, so case says nothing about proper nouns.
// Weak-verb endings (-te, -ten, -tet) collide with too many nouns to be
// folded heuristically; verbs are left to the analyzer.
type german struct{ *table }

func newGerman(opts Options) Rules {
	t := &table{
		code:             "de",
		caseMarksProper:  false,
		infinitives:      []string{"en", "ern", "eln"},
		minInfinitive:    4,
		shortInfinitives: set("tun", "sein"),
		plurals: []ending{
			{from: "innen", to: "in"},
			{from: "ungen", to: "ung"},
			{from: "heiten", to: "heit"},
			{from: "keiten", to: "keit"},
			{from: "schaften", to: "schaft"},
		},
		pluralsOn: opts.Plurals,
		articles: map[string]article{
			"der":   {true, "masculine", "singular"},
			"die":   {true, "feminine", "singular"},
			"das":   {true, "neuter", "singular"},
			"den":   {true, "masculine", "singular"},
			"dem":   {true, "masculine", "singular"},
			"des":   {true, "masculine", "singular"},
			"ein":   {false, "masculine", "singular"},
			"eine":  {false, "feminine", "singular"},
			"einen": {false, "masculine", "singular"},
			"einem": {false, "masculine", "singular"},
			"einer": {false, "feminine", "singular"},
			"eines": {false, "masculine", "singular"},
		},
		prepositions: set("an", "auf", "aus", "bei", "durch", "für", "gegen", "hinter", "in", "mit",
			"nach", "neben", "ohne", "über", "um", "unter", "von", "vor", "zu", "zwischen", "im", "am", "zum", "zur", "vom", "beim"),
		conjunctions: set("und", "oder", "aber", "denn", "sondern", "dass", "weil", "wenn", "als", "ob"),
		pronouns:     set("ich", "du", "er", "sie", "es", "wir", "ihr", "mich", "dich", "uns", "euch", "ihn", "ihm"),
	}
	return german{t.finish()}
}

// japanese relies entirely on the morphological analyzer: no word
// separators, single kanji are words.
type japanese struct{ *table }

func newJapanese(Options) Rules {
	t := &table{
		code:            "ja",
		minLetters:      1,
		segmented:       true,
		caseMarksProper: false,
	}
	return japanese{t.finish()}
}

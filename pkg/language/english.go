package language

// english has no infinitive ending, so only plural folding applies.
type english struct{ *table }

func newEnglish(opts Options) Rules {
	t := &table{
		code:            "en",
		caseMarksProper: true,
		plurals: []ending{
			{from: "ies", to: "y", notAfter: "aeiou"},
			{from: "sses", to: "ss"},
			{from: "ches", to: "ch"},
			{from: "shes", to: "sh"},
			{from: "xes", to: "x"},
			{from: "s", to: "", notAfter: "sui'"},
		},
		pluralsOn: opts.Plurals,
		invariant: set("does", "goes", "has", "was", "is", "this", "his", "its", "hers", "ours",
			"yours", "theirs", "yes", "always", "perhaps", "whereas", "besides", "sometimes",
			"news", "series", "species", "means", "towards", "afterwards", "upwards", "downwards",
			"as", "us", "thus", "plus", "less", "unless", "across", "various", "famous", "anxious",
			"previous", "serious", "during", "nevertheless", "politics", "physics", "mathematics",
			"economics", "lens", "gas", "bus", "alas", "whereabouts"),
		articles: map[string]article{
			"the": {true, "", ""},
			"a":   {false, "", "singular"},
			"an":  {false, "", "singular"},
		},
		prepositions: set("of", "in", "on", "at", "to", "for", "with", "by", "from", "about",
			"into", "over", "after", "under", "between", "through", "during", "without", "before",
			"against", "among", "around", "behind", "beyond", "upon", "within"),
		conjunctions: set("and", "or", "but", "nor", "so", "yet", "because", "although", "if", "while", "unless", "whereas"),
		pronouns:     set("i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us", "them"),
		split: SplitTable{
			Pairs: [][2]string{
				{"publ", "ished"}, {"publ", "ication"}, {"estab", "lished"},
				{"diff", "erent"}, {"diff", "icult"}, {"sugg", "ested"},
			},
			MinLen: 6,
			MaxLen: 20,
		},
	}
	return english{t.finish()}
}

package language

// italian attaches pronoun clitics to infinitives and gerunds
// ("conoscerla", "circondati", "chiamarsi").
type italian struct{ *table }

func newItalian(opts Options) Rules {
	t := &table{
		code:             "it",
		caseMarksProper:  true,
		infinitives:      []string{"are", "ere", "ire"},
		reflexives:       []string{"arsi", "ersi", "irsi"},
		minInfinitive:    5,
		shortInfinitives: set("fare", "dire", "dare"),
		clitics: []string{
			"gliene", "gliela", "glielo", "glieli", "gliele",
			"mene", "tene", "cene", "vene",
			"mele", "mela", "melo", "meli",
			"tele", "tela", "telo", "teli",
			"cele", "cela", "celo", "celi",
			"gli", "la", "le", "li", "lo",
			"mi", "ti", "si", "ci", "vi", "ne",
		},
		// "conoscer"+"e", "circonda"+"re"
		cliticRepairs: []string{"e", "re"},
		conjugations: concat(
			suffixed("are", "avano", "avamo", "avate", "arono", "ando", "ato", "ata", "ati", "ate", "avo", "avi", "ava", "ò"),
			suffixed("ere", "evano", "evamo", "evate", "erono", "endo", "uto", "uta", "uti", "ute", "evo", "evi", "eva"),
			suffixed("ire", "ivano", "ivamo", "ivate", "irono", "ito", "ita", "iti", "ite", "ivo", "ivi", "iva", "ì"),
		),
		plurals: []ending{
			{from: "chi", to: "co"},
			{from: "ghi", to: "go"},
			{from: "che", to: "ca"},
			{from: "ghe", to: "ga"},
			{from: "i", to: "o"},
		},
		pluralsOn: opts.Plurals,
		invariant: set("però", "più", "già", "così", "ciò", "giù", "può", "perciò", "poiché",
			"affinché", "sì", "né", "là", "qua", "qui", "lì", "anche", "sempre", "mai", "niente", "nulla"),
		articles: map[string]article{
			"il":  {true, "masculine", "singular"},
			"lo":  {true, "masculine", "singular"},
			"la":  {true, "feminine", "singular"},
			"i":   {true, "masculine", "plural"},
			"gli": {true, "masculine", "plural"},
			"le":  {true, "feminine", "plural"},
			"un":  {false, "masculine", "singular"},
			"uno": {false, "masculine", "singular"},
			"una": {false, "feminine", "singular"},
			"un'": {false, "feminine", "singular"},
		},
		prepositions: set("di", "a", "da", "in", "con", "su", "per", "tra", "fra",
			"del", "della", "dello", "dei", "degli", "delle", "nel", "nella", "nei", "nelle",
			"al", "alla", "ai", "alle", "dal", "dalla", "sul", "sulla"),
		conjunctions: set("e", "ed", "o", "ma", "perché", "che", "quando", "dove", "se", "come"),
		pronouns:     set("io", "tu", "lui", "lei", "noi", "voi", "loro", "esso", "essa"),
		genders: []genderEnding{
			{"o", "masculine", "singular"},
			{"a", "feminine", "singular"},
			{"i", "masculine", "plural"},
			{"e", "feminine", "plural"},
		},
		split: SplitTable{
			Pairs: [][2]string{
				{"pubbl", "icato"}, {"pubbli", "cato"},
				{"comun", "icato"}, {"comuni", "cato"},
				{"partic", "olare"}, {"partico", "lare"},
				{"appl", "icato"}, {"appli", "cato"},
				{"espl", "icato"}, {"espli", "cato"},
				{"impl", "icato"}, {"impli", "cato"},
				{"compl", "icato"}, {"compli", "cato"},
				{"sempl", "icato"}, {"semplic", "ato"},
				{"multipl", "icato"}, {"multipli", "cato"},
			},
			Prefixes:      []string{"pubbl", "comun", "partic", "appl", "espl", "impl", "compl", "sempl"},
			Continuations: []string{"icato", "icito", "icuto", "licato", "licito", "licuto"},
			MinLen:        6,
			MaxLen:        20,
		},
	}
	return italian{t.finish()}
}

type spanish struct{ *table }

func newSpanish(opts Options) Rules {
	t := &table{
		code:             "es",
		caseMarksProper:  true,
		infinitives:      []string{"ar", "er", "ir"},
		reflexives:       []string{"arse", "erse", "irse"},
		minInfinitive:    4,
		shortInfinitives: set("dar", "ver", "ser", "ir", "oír", "reír"),
		clitics: []string{
			"selos", "selas", "selo", "sela", "melo", "mela", "telo", "tela",
			"nos", "los", "las", "les", "me", "te", "se", "lo", "la", "le",
		},
		cliticRepairs: []string{""},
		conjugations: concat(
			suffixed("ar", "ábamos", "abais", "aban", "abas", "aba", "aron", "ando", "ados", "adas", "ado", "ada"),
			suffixed("er", "íamos", "íais", "ieron", "iendo", "ían", "ías", "ía", "idos", "idas", "ido", "ida"),
		),
		plurals: []ending{
			{from: "ces", to: "z"},
			{from: "es", to: "", onlyAfter: "dlrnjy"},
			{from: "s", to: "", onlyAfter: "aeiouáéó"},
		},
		pluralsOn: opts.Plurals,
		invariant: set("tus", "mis", "sus", "más", "menos", "después", "antes", "lunes", "martes", "miércoles", "jueves", "viernes", "crisis", "tesis"),
		articles: map[string]article{
			"el":   {true, "masculine", "singular"},
			"la":   {true, "feminine", "singular"},
			"los":  {true, "masculine", "plural"},
			"las":  {true, "feminine", "plural"},
			"un":   {false, "masculine", "singular"},
			"una":  {false, "feminine", "singular"},
			"unos": {false, "masculine", "plural"},
			"unas": {false, "feminine", "plural"},
		},
		prepositions: set("a", "ante", "bajo", "con", "contra", "de", "desde", "en", "entre", "hacia",
			"hasta", "para", "por", "según", "sin", "sobre", "tras", "del", "al"),
		conjunctions: set("y", "e", "o", "u", "pero", "porque", "que", "si", "cuando", "aunque"),
		pronouns:     set("yo", "tú", "él", "ella", "nosotros", "vosotros", "ellos", "ellas", "usted", "ustedes"),
		genders: []genderEnding{
			{"o", "masculine", "singular"},
			{"a", "feminine", "singular"},
		},
	}
	return spanish{t.finish()}
}

type french struct{ *table }

func newFrench(opts Options) Rules {
	t := &table{
		code:             "fr",
		caseMarksProper:  true,
		infinitives:      []string{"er", "ir", "re"},
		minInfinitive:    4,
		shortInfinitives: set("dire", "lire", "rire", "voir", "avoir", "être", "aller"),
		conjugations: concat(
			suffixed("ir", "issons", "issez", "issent", "issait", "issaient", "issant"),
			suffixed("er", "aient", "ions", "iez", "ant", "ées", "és", "ée", "é", "ez", "ais", "ait"),
		),
		plurals: []ending{
			{from: "eaux", to: "eau"},
			{from: "aux", to: "al"},
			{from: "eux", to: "eu"},
			{from: "s", to: "", notAfter: "su'"},
		},
		pluralsOn: opts.Plurals,
		invariant: set("fois", "pas", "mais", "dans", "sous", "plus", "très", "vers", "temps", "corps",
			"pays", "bras", "puis", "alors", "depuis", "toujours", "jamais", "après", "moins",
			"parfois", "ailleurs", "dehors", "tous", "gens", "avis", "prix", "voix", "croix",
			"pendant", "avant", "devant", "maintenant", "enfant", "durant", "cependant", "été"),
		articles: map[string]article{
			"le":  {true, "masculine", "singular"},
			"la":  {true, "feminine", "singular"},
			"les": {true, "", "plural"},
			"l'":  {true, "", "singular"},
			"un":  {false, "masculine", "singular"},
			"une": {false, "feminine", "singular"},
			"des": {false, "", "plural"},
			"du":  {false, "masculine", "singular"},
		},
		prepositions: set("à", "de", "en", "dans", "par", "pour", "sur", "avec", "sans", "sous", "chez", "entre", "vers", "au", "aux"),
		conjunctions: set("et", "ou", "mais", "donc", "or", "ni", "car", "que", "quand", "si", "comme"),
		pronouns:     set("je", "tu", "il", "elle", "nous", "vous", "ils", "elles", "on", "moi", "toi", "lui", "eux"),
	}
	return french{t.finish()}
}

func concat(groups ...[]ending) []ending {
	var out []ending
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/lumen-fi/advisor/pkg/common"
)

// Mention is a typed span found by the tagger within one chunk.
type Mention struct {
	Text  string
	Type  common.EntityType
	Start int
	End   int
}

// Tagger finds financial entity mentions with pattern matching and small
// gazetteers. Only whitelisted entity types are emitted; everything else in
// a chunk is ignored.
type Tagger struct {
	money    *regexp.Regexp
	percent  *regexp.Regexp
	quantity *regexp.Regexp
	date     *regexp.Regexp
	quarter  *regexp.Regexp
	orgRule  *regexp.Regexp
	org      *regexp.Regexp
	product  *regexp.Regexp
	location *regexp.Regexp
}

var orgGazetteer = []string{
	"JPMorgan Chase", "Goldman Sachs", "Morgan Stanley", "Berkshire Hathaway",
	"Federal Reserve", "World Bank", "BlackRock", "Vanguard", "Fidelity",
	"Microsoft", "Alphabet", "Amazon", "Google", "Nvidia", "Apple", "Tesla",
	"Meta", "ECB", "IMF",
}

var productGazetteer = []string{
	"Dow Jones Industrial Average", "Nasdaq Composite", "S&P 500",
	"certificates of deposit", "certificate of deposit",
	"money market funds", "money market fund",
	"Treasury bonds", "Treasury bond", "Treasury bills", "Treasury bill",
	"corporate bonds", "corporate bond", "municipal bonds", "municipal bond",
	"index funds", "index fund", "mutual funds", "mutual fund",
	"ETFs", "ETF",
}

var locationGazetteer = []string{
	"United States", "United Kingdom", "North America", "Hong Kong",
	"New York", "Singapore", "Frankfurt", "Germany", "eurozone", "Europe",
	"London", "France", "Canada", "China", "Japan", "India", "Tokyo",
	"Asia", "U.S.", "UK",
}

// NewTagger compiles the tagging rules.
func NewTagger() *Tagger {
	return &Tagger{
		money: regexp.MustCompile(
			`[$€£]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:thousand|million|billion|trillion))?` +
				`|\d[\d,]*(?:\.\d+)?\s?(?:thousand|million|billion|trillion)?\s(?:dollars|euros|pounds|USD|EUR|GBP)`,
		),
		percent: regexp.MustCompile(
			`\d+(?:\.\d+)?\s?(?:%|percentage points|percent)`,
		),
		quantity: regexp.MustCompile(
			`\d[\d,]*(?:\.\d+)?\s(?:shares|units|contracts|basis points|bps|barrels|tons)`,
		),
		date: regexp.MustCompile(
			`(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s*\d{4}` +
				`|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}` +
				`|\d{4}-\d{2}-\d{2}` +
				`|\d{1,2}/\d{1,2}/\d{2,4}`,
		),
		quarter: regexp.MustCompile(
			`Q[1-4]\s\d{4}|(?:fiscal year|FY)\s?\d{4}|\b(?:19|20)\d{2}\b`,
		),
		orgRule: regexp.MustCompile(
			`(?:[A-Z][A-Za-z&.']+\s)+(?:Inc\.?|Corp\.?|Corporation|Ltd\.?|LLC|Group|Holdings|Bank|Capital|Partners|Fund|plc|AG|SA)`,
		),
		org:      gazetteerPattern(orgGazetteer),
		product:  gazetteerPattern(productGazetteer),
		location: gazetteerPattern(locationGazetteer),
	}
}

// gazetteerPattern builds a word-bounded alternation over fixed terms.
// Terms are listed longest-first so the earlier alternative wins on overlap.
func gazetteerPattern(terms []string) *regexp.Regexp {
	alternatives := make([]string, 0, len(terms))
	for _, term := range terms {
		alt := regexp.QuoteMeta(term)
		if isWordChar(term[len(term)-1]) {
			alt += `\b`
		}
		alternatives = append(alternatives, alt)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(alternatives, "|") + `)`)
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Tag returns typed mentions in document order. Overlapping candidates are
// resolved earliest-start first, then longest.
func (t *Tagger) Tag(text string) []Mention {
	var candidates []Mention

	collect := func(re *regexp.Regexp, typ common.EntityType) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			candidates = append(candidates, Mention{
				Text:  text[loc[0]:loc[1]],
				Type:  typ,
				Start: loc[0],
				End:   loc[1],
			})
		}
	}

	collect(t.money, common.EntityTypeMoney)
	collect(t.percent, common.EntityTypePercent)
	collect(t.quantity, common.EntityTypeQuantity)
	collect(t.orgRule, common.EntityTypeOrg)
	collect(t.org, common.EntityTypeOrg)
	collect(t.product, common.EntityTypeProduct)
	collect(t.location, common.EntityTypeLocation)

	for _, loc := range t.date.FindAllStringIndex(text, -1) {
		candidate := text[loc[0]:loc[1]]
		if _, err := dateparse.ParseAny(candidate); err != nil {
			continue
		}
		candidates = append(candidates, Mention{
			Text:  candidate,
			Type:  common.EntityTypeDate,
			Start: loc[0],
			End:   loc[1],
		})
	}
	// quarter and year references are valid dates in financial text but not
	// parseable timestamps
	collect(t.quarter, common.EntityTypeDate)

	return resolveOverlaps(candidates)
}

func resolveOverlaps(candidates []Mention) []Mention {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Start != candidates[j].Start {
			return candidates[i].Start < candidates[j].Start
		}
		return candidates[i].End > candidates[j].End
	})

	mentions := make([]Mention, 0, len(candidates))
	lastEnd := -1
	for _, c := range candidates {
		if c.Start < lastEnd {
			continue
		}
		mentions = append(mentions, c)
		lastEnd = c.End
	}
	return mentions
}

package symbols

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/navdoc/internal/navtree"
)

var (
	tokenPattern = regexp.MustCompile(`[a-z0-9]+`)
	camelPattern = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

type document struct {
	entry  navtree.SymbolEntry
	table  string
	length int
	terms  map[string]int
}

// Index is a BM25 index over symbol rows.
type Index struct {
	docs         []document
	docFreq      map[string]int
	avgDocLength float64
}

// Result is one ranked search hit.
type Result struct {
	Table string              `json:"table"`
	Entry navtree.SymbolEntry `json:"entry"`
	Score float64             `json:"score"`
}

// BuildIndex indexes every row of the given tables.
func BuildIndex(tables ...*Table) *Index {
	idx := &Index{docFreq: make(map[string]int)}
	total := 0
	for _, t := range tables {
		for _, e := range t.Entries {
			terms := buildTerms(e)
			length := 0
			for _, c := range terms {
				length += c
			}
			if length == 0 {
				continue
			}
			idx.docs = append(idx.docs, document{entry: e, table: t.Name, length: length, terms: terms})
			total += length
			for term := range terms {
				idx.docFreq[term]++
			}
		}
	}
	if len(idx.docs) > 0 {
		idx.avgDocLength = float64(total) / float64(len(idx.docs))
	}
	return idx
}

// Len returns the number of indexed rows.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Search ranks rows against query. Exact name matches come first; when BM25
// finds nothing a Levenshtein fallback on names is tried.
func (idx *Index) Search(query string, limit int) []Result {
	if idx == nil || len(idx.docs) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(queryTerms))
	unique := make([]string, 0, len(queryTerms))
	for _, term := range queryTerms {
		if !seen[term] {
			seen[term] = true
			unique = append(unique, term)
		}
	}

	k1 := 1.2
	b := 0.75
	n := float64(len(idx.docs))
	avgLen := idx.avgDocLength
	if avgLen <= 0 {
		avgLen = 1
	}

	exact := strings.TrimSpace(query)
	results := make([]Result, 0)
	for _, doc := range idx.docs {
		score := 0.0
		docLen := float64(doc.length)
		for _, term := range unique {
			tf := float64(doc.terms[term])
			if tf <= 0 {
				continue
			}
			df := float64(idx.docFreq[term])
			idf := math.Log(1.0 + ((n - df + 0.5) / (df + 0.5)))
			score += idf * (tf * (k1 + 1.0)) / (tf + k1*(1.0-b+b*(docLen/avgLen)))
		}
		if score <= 0 {
			continue
		}
		if doc.entry.Name == exact {
			score += 100
		}
		results = append(results, Result{Table: doc.table, Entry: doc.entry, Score: score})
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		return idx.fuzzyNameFallback(query, limit)
	}
	return results
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.Name < results[j].Entry.Name
	})
}

func buildTerms(e navtree.SymbolEntry) map[string]int {
	terms := make(map[string]int)
	addWeighted(terms, e.Name, 4)
	page, _ := navtree.SplitLink(e.Link)
	page = strings.TrimSuffix(page, ".html")
	page = strings.TrimPrefix(page, "group__")
	addWeighted(terms, page, 1)
	return terms
}

func addWeighted(terms map[string]int, value string, weight int) {
	for _, token := range tokenize(value) {
		terms[token] += weight
	}
}

// tokenize splits on non-alphanumerics and camelCase boundaries.
func tokenize(value string) []string {
	if value == "" {
		return nil
	}
	value = camelPattern.ReplaceAllString(value, "${1}_${2}")
	return tokenPattern.FindAllString(strings.ToLower(value), -1)
}

func (idx *Index) fuzzyNameFallback(query string, limit int) []Result {
	needle := normalizeForFuzzy(query)
	if needle == "" {
		return nil
	}
	results := make([]Result, 0)
	for _, doc := range idx.docs {
		candidate := normalizeForFuzzy(doc.entry.Name)
		if candidate == "" {
			continue
		}
		distance := levenshteinDistance(needle, candidate)
		threshold := len(candidate) / 3
		if threshold < 2 {
			threshold = 2
		}
		if distance > threshold {
			continue
		}
		results = append(results, Result{Table: doc.table, Entry: doc.entry, Score: 1.0 / float64(1+distance)})
	}
	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func normalizeForFuzzy(value string) string {
	return strings.Join(tokenize(value), "")
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current := make([]int, len(b)+1)
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			current[j] = min(current[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = current
	}
	return prev[len(b)]
}

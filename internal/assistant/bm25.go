package assistant

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(s string) []string {
	return wordPattern.FindAllString(strings.ToLower(s), -1)
}

// MemoryRetriever ranks the knowledge base with Okapi BM25. It is built once
// and read-only afterwards, so concurrent Retrieve calls are safe.
type MemoryRetriever struct {
	docs   []Doc
	tf     []map[string]int
	length []int
	avgLen float64
	idf    map[string]float64
}

func NewMemoryRetriever(docs []Doc) *MemoryRetriever {
	m := &MemoryRetriever{
		docs:   docs,
		tf:     make([]map[string]int, len(docs)),
		length: make([]int, len(docs)),
		idf:    map[string]float64{},
	}

	df := map[string]int{}
	total := 0
	for i, d := range docs {
		// title counts twice
		toks := append(tokenize(d.Title), tokenize(d.Title+" "+d.Content)...)
		m.length[i] = len(toks)
		total += len(toks)

		freq := map[string]int{}
		for _, t := range toks {
			if freq[t] == 0 {
				df[t]++
			}
			freq[t]++
		}
		m.tf[i] = freq
	}
	if len(docs) > 0 {
		m.avgLen = float64(total) / float64(len(docs))
	}

	n := float64(len(docs))
	for term, f := range df {
		m.idf[term] = math.Log(1 + (n-float64(f)+0.5)/(float64(f)+0.5))
	}
	return m
}

func (m *MemoryRetriever) Retrieve(_ context.Context, query string, k int) ([]Passage, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var hits []Passage
	for i, d := range m.docs {
		if s := m.score(i, terms); s > 0 {
			hits = append(hits, Passage{Source: d.ID, Text: d.Content, Score: s})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MemoryRetriever) score(i int, terms []string) float64 {
	var s float64
	norm := 1 - bm25B + bm25B*float64(m.length[i])/m.avgLen
	for _, t := range terms {
		f := float64(m.tf[i][t])
		if f == 0 {
			continue
		}
		s += m.idf[t] * f * (bm25K1 + 1) / (f + bm25K1*norm)
	}
	return s
}

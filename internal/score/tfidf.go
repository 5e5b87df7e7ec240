package score

import (
	"math"
	"regexp"
	"strings"
)

// tokenPattern matches runs of two or more word characters
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lower-cases text and splits it into word tokens
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Vector is a sparse L2-normalized term weight vector
type Vector map[string]float64

// TFIDF fits a vocabulary on docs and returns one vector per document.
// Weights are raw term counts times smoothed idf ln((1+n)/(1+df))+1.
// A document with no tokens yields an empty vector.
func TFIDF(docs []string) []Vector {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)

	for i, doc := range docs {
		tf := make(map[string]int)
		for _, tok := range Tokenize(doc) {
			tf[tok]++
		}
		for term := range tf {
			df[term]++
		}
		counts[i] = tf
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, d := range df {
		idf[term] = math.Log((1+n)/(1+float64(d))) + 1
	}

	vectors := make([]Vector, len(docs))
	for i, tf := range counts {
		v := make(Vector, len(tf))
		var norm float64
		for term, c := range tf {
			w := float64(c) * idf[term]
			v[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range v {
				v[term] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors
}

// Cosine returns the cosine similarity of two normalized vectors.
// Empty vectors have similarity 0.
func Cosine(a, b Vector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for term, w := range a {
		dot += w * b[term]
	}
	return dot
}

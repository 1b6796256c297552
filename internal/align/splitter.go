package align

import "strings"

// Splitter breaks oversized section text into sentence-aligned chunks
// with a trailing-text overlap between consecutive chunks. Budgets are
// in characters.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// DefaultSplitter matches the ingestion defaults: 1000-char chunks
// with a 200-char overlap.
func DefaultSplitter() Splitter {
	return Splitter{ChunkSize: 1000, Overlap: 200}
}

// Split returns text unchanged when it fits the chunk budget, otherwise
// a sequence of sentence-aligned chunks where each chunk starts with the
// tail of its predecessor.
func (s Splitter) Split(text string) []string {
	size := s.ChunkSize
	if size <= 0 {
		size = 1000
	}
	overlap := s.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	if len(text) <= size {
		return []string{text}
	}

	sentences := splitSentences(text)

	var result []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunk := current.String()
		result = append(result, chunk)
		current.Reset()
		if tail := overlapTail(chunk, overlap); tail != "" {
			current.WriteString(tail)
		}
	}

	for _, sent := range sentences {
		// A single sentence above the budget is word-split; sentence
		// boundaries alone cannot honor the chunk size then.
		if len(sent) > size {
			flush()
			current.Reset()
			pieces := splitWords(sent, size)
			result = append(result, pieces[:len(pieces)-1]...)
			// The final piece stays open so following sentences can join it.
			current.WriteString(pieces[len(pieces)-1])
			continue
		}

		if current.Len() > 0 && current.Len()+1+len(sent) > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences does basic sentence splitting on terminal punctuation
// followed by whitespace. Newlines also terminate a sentence so that
// line-oriented step text splits on its bullets.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		if r == '\n' {
			if t := strings.TrimSpace(current.String()); t != "" {
				sentences = append(sentences, t)
			}
			current.Reset()
			continue
		}
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if t := strings.TrimSpace(current.String()); t != "" {
		sentences = append(sentences, t)
	}
	return sentences
}

// splitWords breaks an oversized sentence into pieces of at most size chars
// at word boundaries where possible.
func splitWords(text string, size int) []string {
	words := strings.Fields(text)
	var pieces []string
	var current strings.Builder

	for _, w := range words {
		// A single word above the budget gets hard-cut.
		for len(w) > size {
			if current.Len() > 0 {
				pieces = append(pieces, current.String())
				current.Reset()
			}
			pieces = append(pieces, w[:size])
			w = w[size:]
		}
		if current.Len() > 0 && current.Len()+1+len(w) > size {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(w)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

// overlapTail returns whole trailing words of text totalling at most
// target characters, for carry-over into the next chunk.
func overlapTail(text string, target int) string {
	if target <= 0 {
		return ""
	}
	words := strings.Fields(text)
	total := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		add := len(words[i])
		if total > 0 {
			add++
		}
		if total+add > target {
			break
		}
		total += add
		start = i
	}
	if start >= len(words) {
		return ""
	}
	return strings.Join(words[start:], " ")
}

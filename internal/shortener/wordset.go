package shortener

// WordSet is an immutable set of words. The zero value is empty.
type WordSet struct {
	words map[string]struct{}
}

// NewWordSet copies words into a new set.
func NewWordSet(words ...string) WordSet {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	return WordSet{words: set}
}

// Contains reports whether word is in the set. Matching is case-sensitive.
func (s WordSet) Contains(word string) bool {
	_, ok := s.words[word]

	return ok
}

// Len returns the number of words in the set.
func (s WordSet) Len() int {
	return len(s.words)
}

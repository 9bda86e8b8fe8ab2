// Package vocab holds the words captured during a round and the flashcard
// deck used to practise them.
package vocab

import (
	"sync"

	"lingoblitz/internal/text"
)

// Item is one captured word and its translation.
type Item struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
}

// Set is the captured vocabulary of a round, in capture order. Words are keyed
// by their normalised form, so "Casa," and "casa" are the same entry.
type Set struct {
	mu    sync.Mutex
	items []Item
	index map[string]struct{}
}

func NewSet() *Set {
	return &Set{index: make(map[string]struct{})}
}

// Add records word unless it is already present. It reports whether the set
// changed.
func (s *Set) Add(word, translation string) bool {
	key := text.CleanWord(word)
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.items = append(s.items, Item{Word: word, Translation: translation})
	return true
}

func (s *Set) Contains(word string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[text.CleanWord(word)]
	return ok
}

// Items returns a copy of the captured items.
func (s *Set) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Set) Clear() {
	s.mu.Lock()
	s.items = nil
	s.index = make(map[string]struct{})
	s.mu.Unlock()
}

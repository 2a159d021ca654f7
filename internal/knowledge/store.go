package knowledge

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicateID     = errors.New("duplicate knowledge id")
	ErrUnknownCategory = errors.New("unknown knowledge category")
	ErrBadPriority     = errors.New("knowledge priority out of range")
	ErrEmptyEntry      = errors.New("knowledge entry is incomplete")
)

// Store is the immutable, in-memory knowledge corpus. It is built once and
// safe for concurrent readers.
type Store struct {
	categories []Category
	catIndex   map[string]int
	entries    []QAPair
	idIndex    map[string]int
}

// NewStore validates the corpus and builds the lookup indexes.
func NewStore(categories []Category, entries []QAPair) (*Store, error) {
	s := &Store{
		categories: make([]Category, len(categories)),
		catIndex:   make(map[string]int, len(categories)),
		entries:    make([]QAPair, len(entries)),
		idIndex:    make(map[string]int, len(entries)),
	}
	copy(s.categories, categories)
	copy(s.entries, entries)

	for i, c := range s.categories {
		if c.ID == "" {
			return nil, fmt.Errorf("category #%d: %w", i, ErrEmptyEntry)
		}
		if _, dup := s.catIndex[c.ID]; dup {
			return nil, fmt.Errorf("category %q: %w", c.ID, ErrDuplicateID)
		}
		s.catIndex[c.ID] = i
	}

	for i, e := range s.entries {
		if e.ID == "" || e.Question == "" || e.Answer == "" {
			return nil, fmt.Errorf("entry #%d (%q): %w", i, e.ID, ErrEmptyEntry)
		}
		if _, dup := s.idIndex[e.ID]; dup {
			return nil, fmt.Errorf("entry %q: %w", e.ID, ErrDuplicateID)
		}
		if e.Priority < MinPriority || e.Priority > MaxPriority {
			return nil, fmt.Errorf("entry %q priority %d: %w", e.ID, e.Priority, ErrBadPriority)
		}
		ci, ok := s.catIndex[e.Category]
		if !ok {
			return nil, fmt.Errorf("entry %q category %q: %w", e.ID, e.Category, ErrUnknownCategory)
		}
		if e.Subcategory != "" && !s.categories[ci].HasSubcategory(e.Subcategory) {
			return nil, fmt.Errorf("entry %q subcategory %q of %q: %w", e.ID, e.Subcategory, e.Category, ErrUnknownCategory)
		}
		s.idIndex[e.ID] = i
	}
	return s, nil
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// All returns a copy of every entry in insertion order.
func (s *Store) All() []QAPair {
	out := make([]QAPair, len(s.entries))
	copy(out, s.entries)
	return out
}

// Categories returns a copy of the category definitions.
func (s *Store) Categories() []Category {
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Category looks up a category by id.
func (s *Store) Category(id string) (Category, bool) {
	i, ok := s.catIndex[id]
	if !ok {
		return Category{}, false
	}
	return s.categories[i], true
}

// Get looks up an entry by id.
func (s *Store) Get(id string) (QAPair, bool) {
	i, ok := s.idIndex[id]
	if !ok {
		return QAPair{}, false
	}
	return s.entries[i], true
}

// ByCategory returns the entries of a category, optionally narrowed to a
// subcategory, highest priority first. Unknown ids yield an empty slice.
func (s *Store) ByCategory(categoryID, subcategory string) []QAPair {
	out := s.filter(func(e QAPair) bool {
		if e.Category != categoryID {
			return false
		}
		return subcategory == "" || e.Subcategory == subcategory
	})
	sortByPriority(out)
	return out
}

// HighPriority returns entries with priority >= 4, highest first, at most limit.
func (s *Store) HighPriority(limit int) []QAPair {
	out := s.filter(func(e QAPair) bool { return e.Priority >= highPriorityFloor })
	sortByPriority(out)
	return truncate(out, limit)
}

// Related returns entries sharing category and subcategory with id,
// excluding id itself, highest priority first, at most limit.
func (s *Store) Related(id string, limit int) []QAPair {
	cur, ok := s.Get(id)
	if !ok {
		return []QAPair{}
	}
	out := s.filter(func(e QAPair) bool {
		return e.ID != cur.ID && e.Category == cur.Category && e.Subcategory == cur.Subcategory
	})
	sortByPriority(out)
	return truncate(out, limit)
}

func (s *Store) filter(keep func(QAPair) bool) []QAPair {
	out := make([]QAPair, 0, 16)
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func sortByPriority(entries []QAPair) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})
}

func truncate[T any](in []T, limit int) []T {
	if limit <= 0 {
		return in[:0]
	}
	if len(in) > limit {
		return in[:limit]
	}
	return in
}

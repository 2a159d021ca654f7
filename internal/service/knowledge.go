package service

import (
	"errors"
	"strings"

	"core_innovators/internal/knowledge"
)

var (
	ErrEntryNotFound    = errors.New("knowledge entry not found")
	ErrCategoryNotFound = errors.New("knowledge category not found")
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// KnowledgeService exposes the read-only knowledge base.
type KnowledgeService struct {
	matcher *knowledge.Matcher
}

func NewKnowledgeService(matcher *knowledge.Matcher) *KnowledgeService {
	return &KnowledgeService{matcher: matcher}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return min(limit, MaxSearchLimit)
}

// Search ranks entries against query. Blank queries return nothing.
func (s *KnowledgeService) Search(query string, limit int) []knowledge.Match {
	if strings.TrimSpace(query) == "" {
		return []knowledge.Match{}
	}
	return s.matcher.SearchScored(query, clampLimit(limit))
}

func (s *KnowledgeService) Categories() []knowledge.Category {
	return s.matcher.Store().Categories()
}

// ByCategory lists entries of one category, optionally narrowed to a subcategory.
func (s *KnowledgeService) ByCategory(category, subcategory string) ([]knowledge.QAPair, error) {
	if _, ok := s.matcher.Store().Category(category); !ok {
		return nil, ErrCategoryNotFound
	}
	return s.matcher.Store().ByCategory(category, subcategory), nil
}

func (s *KnowledgeService) HighPriority(limit int) []knowledge.QAPair {
	return s.matcher.Store().HighPriority(clampLimit(limit))
}

func (s *KnowledgeService) Entry(id string) (knowledge.QAPair, error) {
	e, ok := s.matcher.Store().Get(id)
	if !ok {
		return knowledge.QAPair{}, ErrEntryNotFound
	}
	return e, nil
}

func (s *KnowledgeService) Related(id string, limit int) ([]knowledge.QAPair, error) {
	if _, ok := s.matcher.Store().Get(id); !ok {
		return nil, ErrEntryNotFound
	}
	return s.matcher.Store().Related(id, clampLimit(limit)), nil
}

package service

import (
	"testing"

	"core_innovators/internal/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKnowledge(t *testing.T) *KnowledgeService {
	t.Helper()
	store, err := knowledge.LoadDefault()
	require.NoError(t, err)
	return NewKnowledgeService(knowledge.NewMatcher(store))
}

func TestKnowledgeService_Search(t *testing.T) {
	svc := newTestKnowledge(t)

	assert.Empty(t, svc.Search("   ", 5))

	got := svc.Search("How do I lower CO2 levels?", 0)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), DefaultSearchLimit)
	assert.Equal(t, "aq_co2_004", got[0].Entry.ID)

	assert.LessOrEqual(t, len(svc.Search("co2", 1000)), MaxSearchLimit)
}

func TestKnowledgeService_Lookups(t *testing.T) {
	svc := newTestKnowledge(t)

	_, err := svc.ByCategory("gardening", "")
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	entries, err := svc.ByCategory("air_quality", "co")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, "co", e.Subcategory)
	}

	_, err = svc.Entry("missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	e, err := svc.Entry("aq_co2_004")
	require.NoError(t, err)
	assert.Equal(t, "How do I lower CO2 levels?", e.Question)

	_, err = svc.Related("missing", 5)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	related, err := svc.Related("aq_co_001", 10)
	require.NoError(t, err)
	assert.Len(t, related, 4)

	assert.Len(t, svc.HighPriority(3), 3)
	assert.Len(t, svc.Categories(), 8)
}

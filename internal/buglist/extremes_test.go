package buglist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joescharf/bugfix/internal/models"
)

func TestDateExtremes_Empty(t *testing.T) {
	e := DateExtremes(nil)
	assert.Empty(t, e.Classes)
	assert.True(t, e.Oldest.IsZero())
	assert.True(t, e.Newest.IsZero())
}

func TestDateExtremes_SingleRecord(t *testing.T) {
	bugs := []models.Bug{{ID: 1, CreationDate: date(2024, 3, 1)}}
	e := DateExtremes(bugs)

	// One record carries both extreme dates and classifies oldest.
	assert.Equal(t, date(2024, 3, 1), e.Oldest)
	assert.Equal(t, date(2024, 3, 1), e.Newest)
	assert.Equal(t, DateOldest, e.Classes[1])
}

func TestDateExtremes_Classification(t *testing.T) {
	bugs := []models.Bug{
		{ID: 1, CreationDate: date(2024, 1, 1)},
		{ID: 2, CreationDate: date(2024, 2, 1)},
		{ID: 3, CreationDate: date(2024, 3, 1)},
	}
	e := DateExtremes(bugs)

	assert.Equal(t, DateOldest, e.Classes[1])
	assert.Equal(t, DateNone, e.Classes[2])
	assert.Equal(t, DateNewest, e.Classes[3])
}

func TestDateExtremes_TieOnOldestDate(t *testing.T) {
	bugs := []models.Bug{
		{ID: 1, CreationDate: date(2024, 1, 1)},
		{ID: 2, CreationDate: date(2024, 1, 1)},
		{ID: 3, CreationDate: date(2024, 3, 1)},
	}
	e := DateExtremes(bugs)

	// Every record on the oldest date classifies oldest.
	assert.Equal(t, DateOldest, e.Classes[1])
	assert.Equal(t, DateOldest, e.Classes[2])
	assert.Equal(t, DateNewest, e.Classes[3])
}

func TestDateExtremes_OldestWinsWhenAllEqual(t *testing.T) {
	bugs := []models.Bug{
		{ID: 1, CreationDate: date(2024, 1, 1)},
		{ID: 2, CreationDate: date(2024, 1, 1)},
	}
	e := DateExtremes(bugs)

	assert.Equal(t, DateOldest, e.Classes[1])
	assert.Equal(t, DateOldest, e.Classes[2])
}

func TestDateExtremes_DerivedFromInputOnly(t *testing.T) {
	first := []models.Bug{
		{ID: 1, CreationDate: date(2020, 1, 1)},
		{ID: 2, CreationDate: date(2024, 1, 1)},
	}
	_ = DateExtremes(first)

	// A narrower follow-up set gets fresh extremes, nothing stale.
	second := []models.Bug{
		{ID: 2, CreationDate: date(2024, 1, 1)},
		{ID: 3, CreationDate: date(2024, 6, 1)},
	}
	e := DateExtremes(second)
	assert.Equal(t, date(2024, 1, 1), e.Oldest)
	assert.Equal(t, date(2024, 6, 1), e.Newest)
	assert.Equal(t, DateOldest, e.Classes[2])
	assert.Equal(t, DateNewest, e.Classes[3])
	assert.NotContains(t, e.Classes, int64(1))
}

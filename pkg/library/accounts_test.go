package library

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccounts(t *testing.T) {
	store, _ := setupTestStore(t)

	_, ok := store.CurrentAccount()
	assert.False(t, ok)

	account, err := store.Register("Kyy", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", account.PasswordHash)

	current, ok := store.CurrentAccount()
	require.True(t, ok)
	assert.Equal(t, account.ID, current.ID)

	_, err = store.Register("kyy", "other")
	assert.ErrorIs(t, err, ErrAccountExists)

	_, err = store.Register("  ", "pw")
	assert.Error(t, err)

	require.NoError(t, store.Logout())
	_, ok = store.CurrentAccount()
	assert.False(t, ok)

	_, err = store.Login("KYY", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = store.Login("nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	logged, err := store.Login("KYY", "secret")
	require.NoError(t, err)
	assert.Equal(t, account.ID, logged.ID)

	current, ok = store.CurrentAccount()
	require.True(t, ok)
	assert.Equal(t, "Kyy", current.Username)
}

func TestRecordView(t *testing.T) {
	store, _ := setupTestStore(t)
	series := mustAddSeries(t, store, "Mon Manga")
	chapter := mustAddChapter(t, store, series.ID, 1)

	require.NoError(t, store.RecordView(series.ID, chapter.ID))
	require.NoError(t, store.RecordView(series.ID, ""))

	got, _ := store.GetSeries(series.ID)
	assert.Equal(t, 2, got.Views)

	history := store.History()
	require.Len(t, history, 2)
	assert.Empty(t, history[0].ChapterID)
	assert.Equal(t, chapter.ID, history[1].ChapterID)
	assert.Equal(t, fixedNow.UnixMilli(), history[0].At)

	assert.ErrorIs(t, store.RecordView("serie_missing", ""), ErrSeriesNotFound)
}

func TestHistoryIsCapped(t *testing.T) {
	store, _ := setupTestStore(t)
	series := mustAddSeries(t, store, "Mon Manga")

	for i := 0; i < maxHistory+5; i++ {
		require.NoError(t, store.RecordView(series.ID, fmt.Sprintf("chap_%d", i)))
	}

	history := store.History()
	require.Len(t, history, maxHistory)
	assert.Equal(t, fmt.Sprintf("chap_%d", maxHistory+4), history[0].ChapterID)
}

func TestFavorites(t *testing.T) {
	store, _ := setupTestStore(t)
	a := mustAddSeries(t, store, "A")
	b := mustAddSeries(t, store, "B")

	added, err := store.ToggleFavorite(b.ID)
	require.NoError(t, err)
	assert.True(t, added)
	_, err = store.ToggleFavorite(a.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, titles(store.Favorites()))

	added, err = store.ToggleFavorite(b.ID)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"A"}, titles(store.Favorites()))

	_, err = store.ToggleFavorite("serie_missing")
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	require.NoError(t, store.DeleteSeries(t.Context(), a.ID))
	assert.Empty(t, store.Favorites())
}

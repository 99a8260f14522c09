package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shouni/gemini-content-studio/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	sqlite, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	backends := map[string]KV{
		"memory": NewMemoryKV(),
		"sqlite": sqlite,
	}

	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			s, err := NewStore(kv, 0)
			require.NoError(t, err)

			t.Run("25件書き込むと新しい順に20件だけ残るのだ", func(t *testing.T) {
				for i := range 25 {
					s.Append(ctx, domain.KindLP, domain.HistoryEntry{ID: fmt.Sprintf("e%d", i), Brief: "brief"})
				}
				got := s.List(ctx, domain.KindLP)
				require.Len(t, got, DefaultLimit)
				assert.Equal(t, "e24", got[0].ID)
				assert.Equal(t, "e5", got[len(got)-1].ID)
				assert.Equal(t, domain.KindLP, got[0].Category)
				assert.False(t, got[0].CreatedAt.IsZero())
			})

			t.Run("カテゴリごとに独立している", func(t *testing.T) {
				s.Append(ctx, domain.KindManga, domain.HistoryEntry{Brief: "manga"})
				got := s.List(ctx, domain.KindManga)
				require.Len(t, got, 1)
				assert.NotEmpty(t, got[0].ID)
				assert.Empty(t, s.List(ctx, domain.KindSlides))
			})
		})
	}
}

func TestStore_Failures(t *testing.T) {
	ctx := context.Background()

	_, err := NewStore(nil, 0)
	assert.Error(t, err)

	t.Run("保存先が壊れていてもパニックせず空を返すのだ", func(t *testing.T) {
		s, err := NewStore(brokenKV{}, 0)
		require.NoError(t, err)
		s.Append(ctx, domain.KindLP, domain.HistoryEntry{})
		got := s.List(ctx, domain.KindLP)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("壊れたデータは作り直す", func(t *testing.T) {
		kv := NewMemoryKV()
		require.NoError(t, kv.Set(ctx, keyPrefix+"lp", []byte("{not json")))
		s, err := NewStore(kv, 3)
		require.NoError(t, err)

		assert.Empty(t, s.List(ctx, domain.KindLP))
		s.Append(ctx, domain.KindLP, domain.HistoryEntry{ID: "fresh"})
		got := s.List(ctx, domain.KindLP)
		require.Len(t, got, 1)
		assert.Equal(t, "fresh", got[0].ID)
	})
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	kv, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
	require.NoError(t, kv.Set(ctx, "k", []byte("v2")))
	require.NoError(t, kv.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), v)

	_, err = OpenSQLite(ctx, "")
	assert.Error(t, err)
}

package lexicon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccgtools/cardscan/internal/entity"
)

type stubSource struct {
	lex    *entity.RulebookLexicon
	builds int
}

func (s *stubSource) Build(context.Context) (*entity.RulebookLexicon, error) {
	s.builds++
	return s.lex, nil
}

func TestLoadBuiltinWritesCache(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "lexicon.json")

	lex, err := Load(context.Background(), Options{CachePath: cache}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, lex.CardTypes)
	assert.NotEmpty(t, lex.Icons)

	_, err = os.Stat(cache)
	assert.NoError(t, err)
}

func TestLoadPrefersCacheOverSource(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "lexicon.json")
	src := &stubSource{lex: Builtin()}

	_, err := Load(context.Background(), Options{CachePath: cache, Source: src}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.builds)

	_, err = Load(context.Background(), Options{CachePath: cache, Source: src}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.builds, "cache hit must not rebuild")

	_, err = Load(context.Background(), Options{CachePath: cache, Source: src, Refresh: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, src.builds, "refresh must rebuild")
}

func TestBuiltinMarkers(t *testing.T) {
	lex := Builtin()

	markers := make([]string, 0, len(lex.Icons))
	for _, ic := range lex.Icons {
		markers = append(markers, ic.Marker)
	}
	assert.Contains(t, markers, "[attack icon]")
	assert.Contains(t, markers, "[defense icon]")
	assert.Contains(t, markers, "[constant icon]")
	assert.Contains(t, markers, "[timing icon]")
}

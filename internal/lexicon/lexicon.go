// Package lexicon loads the rulebook-derived domain vocabulary used by
// extraction and normalization. The lexicon is cached to disk as JSON and
// rebuilt from a rulebook source only on explicit refresh or cache miss.
package lexicon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
)

// Source rebuilds the lexicon from a rulebook document. The PDF text/icon
// extraction behind it is an external collaborator.
type Source interface {
	Build(ctx context.Context) (*entity.RulebookLexicon, error)
}

// Options controls loading behavior.
type Options struct {
	CachePath string
	Refresh   bool
	Source    Source
}

// Load returns the lexicon, preferring the disk cache unless Refresh is set.
// With no source configured the embedded builtin vocabulary is used.
func Load(ctx context.Context, opts Options, logger *slog.Logger) (*entity.RulebookLexicon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !opts.Refresh && opts.CachePath != "" {
		if lex, err := readCache(opts.CachePath); err == nil {
			logger.Debug("lexicon.cache.hit", "path", opts.CachePath)
			return lex, nil
		}
	}

	var lex *entity.RulebookLexicon
	if opts.Source != nil {
		built, err := opts.Source.Build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build lexicon: %w", err)
		}
		lex = built
		logger.Info("lexicon.rebuilt", "icons", len(lex.Icons), "keywords", len(lex.Keywords))
	} else {
		lex = Builtin()
		logger.Info("lexicon.builtin", "icons", len(lex.Icons))
	}

	if opts.CachePath != "" {
		if err := writeCache(opts.CachePath, lex); err != nil {
			return nil, fmt.Errorf("write lexicon cache: %w", err)
		}
	}
	return lex, nil
}

func readCache(path string) (*entity.RulebookLexicon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lex entity.RulebookLexicon
	if err := json.Unmarshal(b, &lex); err != nil {
		return nil, err
	}
	if len(lex.CardTypes) == 0 {
		return nil, fmt.Errorf("lexicon cache %s is empty", path)
	}
	return &lex, nil
}

func writeCache(path string, lex *entity.RulebookLexicon) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(lex, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Builtin returns the embedded default vocabulary, used when no rulebook
// source is configured.
func Builtin() *entity.RulebookLexicon {
	icons := []entity.IconReference{
		{Name: "attack", Marker: "[attack icon]", Cues: []string{"attack", "physical attack", "energy attack"}},
		{Name: "defense", Marker: "[defense icon]", Cues: []string{"defense", "block", "stop"}},
		{Name: "constant", Marker: "[constant icon]", Cues: []string{"constant", "ongoing"}},
		{Name: "timing", Marker: "[timing icon]", Cues: []string{"timing", "phase"}},
	}

	hero := []string{"heroes only", "heroic", "hero"}
	villain := []string{"villains only", "villainous", "villain"}
	ally := []string{"ally", "allies"}

	keywords := []string{
		"main personality", "mastery", "dragon ball", "drill",
		"combat", "event", "setup",
		"power:", "hit:", "damage:",
		"endurance", "pur", "anger", "rejuvenate",
		"banish", "shuffle", "attach",
	}
	keywords = append(keywords, hero...)
	keywords = append(keywords, villain...)
	keywords = append(keywords, ally...)

	return &entity.RulebookLexicon{
		CardTypes:       constants.CardTypeStrings(),
		Styles:          constants.StyleStrings(),
		Icons:           icons,
		HeroKeywords:    hero,
		VillainKeywords: villain,
		AllyKeywords:    ally,
		Keywords:        keywords,
	}
}

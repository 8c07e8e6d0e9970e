package entity

// IconReference describes one inline icon: the canonical bracket marker the
// normalizer rewrites glyphs to, the textual cues that identify it, and the
// rulebook asset it was extracted from.
type IconReference struct {
	Name      string   `json:"name"`
	Marker    string   `json:"marker"`
	Cues      []string `json:"cues,omitempty"`
	AssetPath string   `json:"asset_path,omitempty"`
}

// RulebookLexicon supplies the domain vocabulary used by extraction and
// normalization. Read-only once loaded.
type RulebookLexicon struct {
	CardTypes       []string        `json:"card_types"`
	Styles          []string        `json:"styles"`
	Icons           []IconReference `json:"icons"`
	HeroKeywords    []string        `json:"hero_keywords"`
	VillainKeywords []string        `json:"villain_keywords"`
	AllyKeywords    []string        `json:"ally_keywords"`
	Keywords        []string        `json:"keywords"`
}

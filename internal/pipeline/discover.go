package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ccgtools/cardscan/constants"
	"github.com/ccgtools/cardscan/internal/entity"
)

// DiscoverImages lists the card images for the given set codes, one
// directory per set under the images root. Results are sorted per set with
// numeric-aware filename ordering so C2 sorts before C10.
func DiscoverImages(imagesRoot string, setCodes []string, setNames map[string]string) ([]entity.ImageRef, error) {
	var out []entity.ImageRef
	for _, code := range setCodes {
		dir := filepath.Join(imagesRoot, code)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read set directory %s: %w", dir, err)
		}

		var files []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := constants.NormalizeExt(filepath.Ext(e.Name()))
			if _, ok := constants.AllowedExtensions[ext]; !ok {
				continue
			}
			files = append(files, e.Name())
		}
		sort.Slice(files, func(i, j int) bool {
			return numericAwareLess(files[i], files[j])
		})

		for _, f := range files {
			out = append(out, entity.ImageRef{
				SetCode:       code,
				SetName:       setNames[code],
				ImagePath:     filepath.Join(dir, f),
				ImageFileName: f,
			})
		}
	}
	return out, nil
}

// numericAwareLess compares filenames chunk-wise, treating digit runs as
// numbers.
func numericAwareLess(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for a != "" && b != "" {
		an, arest, aIsNum := nextChunk(a)
		bn, brest, bIsNum := nextChunk(b)
		if aIsNum && bIsNum {
			av, bv := chunkValue(an), chunkValue(bn)
			if av != bv {
				return av < bv
			}
		} else if an != bn {
			return an < bn
		}
		a, b = arest, brest
	}
	return len(a) < len(b)
}

func nextChunk(s string) (chunk, rest string, isNum bool) {
	isNum = s[0] >= '0' && s[0] <= '9'
	i := 1
	for i < len(s) && (s[i] >= '0' && s[i] <= '9') == isNum {
		i++
	}
	return s[:i], s[i:], isNum
}

func chunkValue(s string) int {
	n := 0
	for _, ch := range s {
		n = n*10 + int(ch-'0')
	}
	return n
}

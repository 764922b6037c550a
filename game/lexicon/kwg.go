package lexicon

import (
	"path/filepath"
	"strings"

	wglconfig "github.com/domino14/word-golib/config"
	"github.com/domino14/word-golib/kwg"
	"github.com/domino14/word-golib/tilemapping"
)

// KWG answers lookups from a compiled word graph.
type KWG struct {
	lex           kwg.Lexicon
	alph          *tilemapping.TileMapping
	transliterate func(string) string
}

// KWGPath returns where word-golib looks for the graph called name.
func KWGPath(dataPath, name string) string {
	return filepath.Join(dataPath, "lexica", "gaddag", name+".kwg")
}

// LoadKWG loads the graph name from dataPath. transliterate maps board text
// onto the graph's alphabet; nil upper-cases.
func LoadKWG(dataPath, name string, transliterate func(string) string) (*KWG, error) {
	cfg := &wglconfig.Config{DataPath: dataPath}
	k, err := kwg.GetKWG(cfg, name)
	if err != nil {
		return nil, err
	}
	if transliterate == nil {
		transliterate = strings.ToUpper
	}
	return &KWG{
		lex:           kwg.Lexicon{KWG: *k},
		alph:          k.GetAlphabet(),
		transliterate: transliterate,
	}, nil
}

func (k *KWG) Contains(word string) bool {
	mw, err := tilemapping.ToMachineWord(k.transliterate(word), k.alph)
	if err != nil {
		return false
	}
	return k.lex.HasWord(mw)
}

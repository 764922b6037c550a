package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// WordList is an in-memory set of normalized words.
type WordList struct {
	words map[string]struct{}
}

// NewWordList builds a list from words.
func NewWordList(words ...string) *WordList {
	wl := &WordList{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		wl.add(w)
	}
	return wl
}

// ReadWordList reads one word per line. Blank lines and lines starting with
// '#' are skipped; anything after the first whitespace on a line is ignored.
func ReadWordList(r io.Reader) (*WordList, error) {
	wl := NewWordList()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			wl.add(fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return wl, nil
}

// LoadWordList reads a word list file.
func LoadWordList(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWordList(f)
}

func (wl *WordList) add(word string) {
	if w := Normalize(word); w != "" {
		wl.words[w] = struct{}{}
	}
}

func (wl *WordList) Contains(word string) bool {
	_, ok := wl.words[Normalize(word)]
	return ok
}

func (wl *WordList) Len() int {
	return len(wl.words)
}

// Package lexicon provides the word-validity oracles used by the game engine.
//
// Three implementations are available:
//   - WordList: a plain text word list, one word per line
//   - KWG: a compiled word graph loaded through word-golib
//   - AcceptAll: accepts every word, for casual games and tests
//
// Registry picks an oracle per language from a lexicon directory and caches
// it for the lifetime of the process.
package lexicon

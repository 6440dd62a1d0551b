package launcher

import (
	"fmt"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
	"github.com/sahilm/fuzzy"
)

// Matcher is a case-insensitive subsequence matcher.
type Matcher interface {
	// Match returns the score of pattern against text and whether it
	// matched at all. Higher scores are better.
	Match(pattern, text string) (int, bool)
}

// NewMatcher returns the matcher named by the search config.
func NewMatcher(name string) (Matcher, error) {
	switch name {
	case "", "sahilm":
		return SahilmMatcher{}, nil
	case "fzf":
		return NewFzfMatcher(), nil
	default:
		return nil, fmt.Errorf("unknown matcher %q", name)
	}
}

// SahilmMatcher scores with github.com/sahilm/fuzzy, which favours
// matches at word starts and adjacent characters.
type SahilmMatcher struct{}

func (SahilmMatcher) Match(pattern, text string) (int, bool) {
	matches := fuzzy.Find(pattern, []string{text})
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Score, true
}

var fzfInit sync.Once

// FzfMatcher scores with fzf's v2 algorithm. It keeps a scratch slab and
// is not safe for concurrent use.
type FzfMatcher struct {
	slab *util.Slab
}

func NewFzfMatcher() *FzfMatcher {
	fzfInit.Do(func() {
		algo.Init("default")
	})
	return &FzfMatcher{slab: util.MakeSlab(100*1024, 2048)}
}

func (m *FzfMatcher) Match(pattern, text string) (int, bool) {
	chars := util.ToChars([]byte(text))
	res, _ := algo.FuzzyMatchV2(false, true, true, &chars, []rune(strings.ToLower(pattern)), false, m.slab)
	if res.Start < 0 {
		return 0, false
	}
	return res.Score, true
}

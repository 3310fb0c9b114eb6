// Package moderation decides whether user-written text is withheld from read paths.
package moderation

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DefaultWords 内置屏蔽词，配置中的 moderation.words 会追加到这里
var DefaultWords = []string{
	"fuck", "fucking", "shit", "bitch", "bastard", "asshole",
	"dick", "cunt", "motherfucker", "slut", "whore", "crap",
}

// Filter 纯函数式的词表匹配，大小写不敏感，按词边界匹配
type Filter struct {
	words   map[string]struct{}
	phrases [][]string
}

// New 用默认词表加上 extra 构造过滤器
func New(extra ...string) *Filter {
	f := &Filter{words: make(map[string]struct{})}
	for _, w := range append(append([]string{}, DefaultWords...), extra...) {
		toks := tokenize(w)
		switch len(toks) {
		case 0:
		case 1:
			f.words[toks[0]] = struct{}{}
		default:
			f.phrases = append(f.phrases, toks)
		}
	}
	return f
}

// IsBlocked 文本中出现任一屏蔽词（或词组）即返回 true
func (f *Filter) IsBlocked(text string) bool {
	toks := tokenize(text)
	for i, t := range toks {
		if _, ok := f.words[t]; ok {
			return true
		}
		for _, p := range f.phrases {
			if hasPrefix(toks[i:], p) {
				return true
			}
		}
	}
	return false
}

func hasPrefix(toks, phrase []string) bool {
	if len(toks) < len(phrase) {
		return false
	}
	for i := range phrase {
		if toks[i] != phrase[i] {
			return false
		}
	}
	return true
}

// tokenize 折叠大小写后按非字母数字切分
func tokenize(s string) []string {
	folded := cases.Fold().String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

package parser

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// A key is a run of word characters and spaces; the value is either a
// double-quoted string with backslash escapes or everything up to the next comma.
// Whitespace and digits are matched in the Unicode sense.
var (
	reParam     = regexp.MustCompile(`[\s\p{Z}]*([\p{L}\p{N}_ ]+):[\s\p{Z}]*("(?:\\.|[^\\"])+"|[^,]*)(?:,|$)`)
	reImageSize = regexp.MustCompile(`^(\p{Nd}+)x(\p{Nd}+)$`)
)

// minTailTokens is the number of key/value pairs a last line needs before it is
// taken as the parameter tail rather than more prompt text.
const minTailTokens = 3

// Token is one key/value pair of a parameter line, value still in source form.
type Token struct {
	Key string
	Raw string
}

// Tokenize splits a parameter line into its key/value pairs, left to right.
func Tokenize(line string) []Token {
	matches := reParam.FindAllStringSubmatch(line, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Token{Key: m[1], Raw: m[2]})
	}
	return tokens
}

// unquote decodes a JSON string literal. Anything that is not a well-formed
// literal is returned unchanged.
func unquote(text string) string {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return text
	}
	if !gjson.Valid(text) {
		return text
	}
	return gjson.Parse(text).String()
}

// normalizeToken expands one token into the fields it stores: quoted values are
// unescaped and WxH values are split into <key>-1 and <key>-2.
func normalizeToken(tok Token) []Field {
	value := unquote(tok.Raw)
	if m := reImageSize.FindStringSubmatch(value); m != nil {
		return []Field{
			{Key: tok.Key + "-1", Value: m[1]},
			{Key: tok.Key + "-2", Value: m[2]},
		}
	}
	return []Field{{Key: tok.Key, Value: value}}
}

func cleanKey(key string) string {
	return strings.TrimSpace(key)
}

package ast

import (
	"github.com/dlclark/regexp2"
)

var identRe = regexp2.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`, regexp2.None)

var reserved = map[string]struct{}{
	"break": {}, "case": {}, "class": {}, "continue": {}, "default": {},
	"delete": {}, "do": {}, "else": {}, "extends": {}, "false": {},
	"for": {}, "function": {}, "if": {}, "implements": {}, "import": {},
	"in": {}, "instanceof": {}, "interface": {}, "new": {}, "null": {},
	"return": {}, "super": {}, "switch": {}, "this": {}, "throw": {},
	"true": {}, "try": {}, "typeof": {}, "undefined": {}, "var": {},
	"void": {}, "while": {}, "with": {},
}

// IsIdentifier reports whether s can be written as a bare name or after a
// dot. Reserved words are rejected.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if _, ok := reserved[s]; ok {
		return false
	}
	ok, err := identRe.MatchString(s)
	return err == nil && ok
}

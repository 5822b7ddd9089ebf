package render

import (
	"encoding/hex"
	"strings"
)

// Pool strings reach labels verbatim, so line breaks are shown escaped.
var labelEscaper = strings.NewReplacer(
	"&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;",
	"\n", `\n`, "\r", `\r`, "\t", `\t`,
)

// dotEscape escapes a string for use in DOT HTML labels.
func dotEscape(s string) string {
	return labelEscaper.Replace(s)
}

// dotID returns a DOT identifier for a function or callee. Action paths
// ("frame_3/btn"), anonymous functions ("anon#0", "f/<anonymous>") and
// non-ASCII pool names are hex escaped byte by byte.
func dotID(name string) string {
	b := make([]byte, 0, len(name)+2)
	b = append(b, "n_"...)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' {
			b = append(b, c)
			continue
		}
		b = append(b, "_x"...)
		b = append(b, hex.EncodeToString([]byte{c})...)
	}
	return string(b)
}

// timelineBuiltins are the AVM1 global functions the decompiler emits for
// playback and URL actions.
var timelineBuiltins = map[string]bool{
	"play": true, "stop": true, "nextFrame": true, "prevFrame": true,
	"gotoAndPlay": true, "gotoAndStop": true, "stopAllSounds": true,
	"toggleHighQuality": true, "stopDrag": true, "trace": true,
	"getURL": true, "getTimer": true, "getProperty": true, "setProperty": true,
	"duplicateMovieClip": true, "removeMovieClip": true, "tellTarget": true,
	"targetPath": true, "call": true,
}

// engineCall reports whether a callee is provided by the player rather
// than the movie: a timeline builtin or an all-caps engine hook.
func engineCall(name string) bool {
	if timelineBuiltins[name] {
		return true
	}
	if len(name) < 2 {
		return false
	}
	for _, c := range name {
		if !('A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

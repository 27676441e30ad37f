package ptyjob

import (
	"os"
	"strings"
)

// BuildEnv merges extra entries over the parent environment and pins the
// terminal identity variables, which extra entries may still override.
func BuildEnv(term string, extra []string) []string {
	if term == "" {
		term = "xterm-256color"
	}
	colorterm := "truecolor"
	env := make([]string, 0, len(os.Environ())+len(extra)+2)
	for _, kv := range os.Environ() {
		if hasKey(kv, "TERM") || hasKey(kv, "COLORTERM") {
			continue
		}
		env = append(env, kv)
	}
	for _, kv := range extra {
		switch {
		case hasKey(kv, "TERM"):
			term = kv[len("TERM="):]
		case hasKey(kv, "COLORTERM"):
			colorterm = kv[len("COLORTERM="):]
		default:
			env = append(env, kv)
		}
	}
	return append(env, "TERM="+term, "COLORTERM="+colorterm)
}

func hasKey(kv, key string) bool {
	return strings.HasPrefix(kv, key+"=")
}

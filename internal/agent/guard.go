package agent

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// actionGuard counts identical consecutive actions within one turn.
type actionGuard struct {
	window int
	last   [32]byte
	count  int
}

// observe records an action and reports whether it completes a run of
// window identical actions. A window of 0 never trips.
func (g *actionGuard) observe(function string, input json.RawMessage) bool {
	if g.window <= 0 {
		return false
	}
	fp := actionFingerprint(function, input)
	if g.count > 0 && fp == g.last {
		g.count++
	} else {
		g.last = fp
		g.count = 1
	}
	return g.count >= g.window
}

// actionFingerprint hashes the function name and compacted input, so
// whitespace differences in the model's JSON do not hide a repeat.
func actionFingerprint(function string, input json.RawMessage) [32]byte {
	var buf bytes.Buffer
	buf.WriteString(function)
	buf.WriteByte(0)
	if err := json.Compact(&buf, input); err != nil {
		buf.Write(input)
	}
	return blake3.Sum256(buf.Bytes())
}

// digest returns the hex BLAKE3 digest of s.
func digest(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// MemoProgramID is the on-chain memo program whose instructions carry the
// game tag.
const MemoProgramID = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"

// memoPattern matches SquadGames_<gameId>_<handle> where gameId is a
// non-negative integer and handle is one or more characters.
var memoPattern = regexp.MustCompile(`^SquadGames_(\d+)_(.+)$`)

// ParseMemo extracts (game id, handle) from a decoded memo string.
// ok is false when the text does not match the deposit tag format — callers
// must treat that as "ignore this event", not as an error.
func ParseMemo(memo string) (game int64, handle string, ok bool) {
	m := memoPattern.FindStringSubmatch(memo)
	if m == nil {
		return 0, "", false
	}
	game, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// \d+ beyond int64 range
		return 0, "", false
	}
	return game, m[2], true
}

// FormatMemo renders the deposit tag embedded in the action transaction.
func FormatMemo(game int64, handle string) string {
	return fmt.Sprintf("SquadGames_%d_%s", game, handle)
}

// Package tapback classifies chat.db message rows that represent
// tapback reactions rather than genuine messages. A tapback is stored
// as its own message row whose associated_message_type carries the
// reaction code and whose associated_message_guid points at the target.
package tapback

import "strings"

// Kind is a semantic reaction type.
type Kind string

const (
	Love     Kind = "love"
	Like     Kind = "like"
	Dislike  Kind = "dislike"
	Laugh    Kind = "laugh"
	Emphasis Kind = "emphasis"
	Question Kind = "question"
)

// Reaction codes: 2000-2005 add a reaction, 3000-3005 remove the
// corresponding one.
const (
	addBase    = 2000
	removeBase = 3000
	kindCount  = 6
)

var kinds = [kindCount]Kind{Love, Like, Dislike, Laugh, Emphasis, Question}

// IsReaction reports whether an associated_message_type code denotes a
// tapback event, add or remove.
func IsReaction(code int64) bool {
	return (code >= addBase && code < addBase+kindCount) ||
		(code >= removeBase && code < removeBase+kindCount)
}

// IsRemove reports whether the code denotes a reaction removal.
func IsRemove(code int64) bool {
	return code >= removeBase && code < removeBase+kindCount
}

// KindOf resolves the semantic reaction type for an add or remove code.
// Remove codes normalize down into the add range.
func KindOf(code int64) (Kind, bool) {
	if IsRemove(code) {
		code -= removeBase - addBase
	}
	if code < addBase || code >= addBase+kindCount {
		return "", false
	}
	return kinds[code-addBase], true
}

// TargetGUID recovers the bare GUID of the message a tapback row points
// at. associated_message_guid may carry a part prefix ("p:0/GUID"), a
// short prefix ("bp:GUID"), or no prefix at all.
func TargetGUID(assoc string) string {
	if rest, ok := strings.CutPrefix(assoc, "bp:"); ok {
		return rest
	}
	if strings.HasPrefix(assoc, "p:") {
		if i := strings.IndexByte(assoc, '/'); i >= 0 {
			return assoc[i+1:]
		}
	}
	return assoc
}

// Package convkey derives the canonical identifiers for conversations.
// Direct keys are order-independent: the two participant ids are sorted
// lexicographically before composing, so key(a,b,ctx) == key(b,a,ctx).
// Unsorted participant arrays in earlier data produced duplicate
// conversation rows; derivation is centralized here so no call site
// composes keys by hand.
package convkey

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

const sep = ":"

// DirectKey returns the canonical key for a direct conversation between two
// users within one profile context, plus the sorted participant pair.
func DirectKey(userA, userB string, ctx models.ProfileContext) (string, []string, error) {
	if userA == "" || userB == "" {
		return "", nil, apperr.InvalidParticipants("participant id must not be empty")
	}
	if userA == userB {
		return "", nil, apperr.InvalidParticipants("no self-conversations")
	}
	if !ctx.Valid() {
		return "", nil, apperr.InvalidProfileContext(fmt.Sprintf("unknown profile context %q", ctx))
	}
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join([]string{"direct", pair[0], pair[1], string(ctx)}, sep), pair, nil
}

// ChannelKey addresses a group channel. Both ids must be non-empty; default
// channel fallback is resolved by the group store, not here.
func ChannelKey(groupID, channelID string) (string, error) {
	if groupID == "" || channelID == "" {
		return "", apperr.BadRequest("group id and channel id required")
	}
	return strings.Join([]string{"channel", groupID, channelID}, sep), nil
}

package convkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

func TestDirectKeyOrderIndependent(t *testing.T) {
	for _, ctx := range models.AllContexts() {
		k1, p1, err := DirectKey("u-bob", "u-alice", ctx)
		require.NoError(t, err)
		k2, p2, err := DirectKey("u-alice", "u-bob", ctx)
		require.NoError(t, err)

		assert.Equal(t, k1, k2)
		assert.Equal(t, p1, p2)
		assert.Equal(t, []string{"u-alice", "u-bob"}, p1)
	}
}

func TestDirectKeyContextsAreDisjoint(t *testing.T) {
	seen := map[string]bool{}
	for _, ctx := range models.AllContexts() {
		k, _, err := DirectKey("u1", "u2", ctx)
		require.NoError(t, err)
		assert.False(t, seen[k], "key %s repeated across contexts", k)
		seen[k] = true
	}
	assert.Len(t, seen, 3)
}

func TestDirectKeyRejectsSelfConversation(t *testing.T) {
	_, _, err := DirectKey("u1", "u1", models.ContextBasic)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidParticipants, apperr.CodeOf(err))
}

func TestDirectKeyRejectsEmptyParticipant(t *testing.T) {
	for _, pair := range [][2]string{{"", "u2"}, {"u1", ""}, {"", ""}} {
		_, _, err := DirectKey(pair[0], pair[1], models.ContextLove)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeInvalidParticipants, apperr.CodeOf(err))
	}
}

func TestDirectKeyRejectsUnknownContext(t *testing.T) {
	_, _, err := DirectKey("u1", "u2", models.ProfileContext("casual"))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidProfileContext, apperr.CodeOf(err))
}

func TestChannelKey(t *testing.T) {
	k, err := ChannelKey("g1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "channel:g1:c1", k)

	_, err = ChannelKey("", "c1")
	require.Error(t, err)
	_, err = ChannelKey("g1", "")
	require.Error(t, err)
}

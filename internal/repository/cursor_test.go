package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	c := encodeCursor(at, "msg-42")

	gotAt, gotID, err := decodeCursor(c)
	require.NoError(t, err)
	assert.True(t, at.Equal(gotAt))
	assert.Equal(t, "msg-42", gotID)
}

func TestCursorRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"%%%", "bm9zZXBhcmF0b3I", encodeCursor(time.Now(), "")[:4]} {
		_, _, err := decodeCursor(bad)
		assert.Error(t, err, "cursor %q", bad)
	}
}

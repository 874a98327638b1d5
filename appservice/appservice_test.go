package appservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterestedInRoom(t *testing.T) {
	s := New("as1", []string{`^!bridged_.*:example\.org$`}, nil)
	assert.True(t, s.InterestedInRoom("!bridged_123:example.org"))
	assert.False(t, s.InterestedInRoom("!other:example.org"))
}

func TestInterestedInEventViaMembership(t *testing.T) {
	s := New("as1", nil, []string{`^@bridge_.*:example\.org$`})
	stateKey := "@bridge_bot:example.org"

	assert.True(t, s.InterestedInEvent("!any:example.org", "m.room.member", &stateKey))

	otherKey := "@alice:example.org"
	assert.False(t, s.InterestedInEvent("!any:example.org", "m.room.member", &otherKey))
	assert.False(t, s.InterestedInEvent("!any:example.org", "m.room.message", &stateKey))
}

func TestInvalidPatternsAreDropped(t *testing.T) {
	s := New("as1", []string{"(unterminated"}, nil)
	assert.Empty(t, s.RoomPatterns)
}

func TestInterestedInEventFalseWithoutStateKey(t *testing.T) {
	s := New("as1", nil, []string{`.*`})
	assert.False(t, s.InterestedInEvent("!room:example.org", "m.room.member", nil))
}

// Package appservice models the external application service collaborator
// referenced by spec §4.5.3: a regex-scoped interest set over room IDs and
// user IDs. No ecosystem library in the retrieved example pack exposes this
// matching concern with a verifiable API, so it is built directly on the
// standard library's regexp.
package appservice

import "regexp"

// Service is one registered application service's interest configuration.
type Service struct {
	ID           string
	RoomPatterns []*regexp.Regexp
	UserPatterns []*regexp.Regexp
}

// New compiles the given room/user regex patterns into a Service. Invalid
// patterns are dropped silently from the corresponding list, matching a
// registration-time validation step the spec treats as external.
func New(id string, roomPatterns, userPatterns []string) *Service {
	s := &Service{ID: id}
	for _, p := range roomPatterns {
		if re, err := regexp.Compile(p); err == nil {
			s.RoomPatterns = append(s.RoomPatterns, re)
		}
	}
	for _, p := range userPatterns {
		if re, err := regexp.Compile(p); err == nil {
			s.UserPatterns = append(s.UserPatterns, re)
		}
	}
	return s
}

// InterestedInRoom reports whether roomID matches any of the service's room
// namespaces.
func (s *Service) InterestedInRoom(roomID string) bool {
	for _, re := range s.RoomPatterns {
		if re.MatchString(roomID) {
			return true
		}
	}
	return false
}

// InterestedInUser reports whether userID matches any of the service's user
// namespaces.
func (s *Service) InterestedInUser(userID string) bool {
	for _, re := range s.UserPatterns {
		if re.MatchString(userID) {
			return true
		}
	}
	return false
}

// InterestedInEvent implements spec §4.5.3's row filter: "a row is
// interesting iff its room_id is in that set, OR its type ==
// 'm.room.member' and its state_key (the target user) matches the
// service's user interest."
func (s *Service) InterestedInEvent(roomID, eventType string, stateKey *string) bool {
	if s.InterestedInRoom(roomID) {
		return true
	}
	if eventType == "m.room.member" && stateKey != nil {
		return s.InterestedInUser(*stateKey)
	}
	return false
}

package event

import "github.com/stretchr/testify/mock"

// MatchEvent creates a custom matcher for canonical event arguments in mocks
func MatchEvent(matcher func(CanonicalEvent) bool) interface{} {
	return mock.MatchedBy(matcher)
}

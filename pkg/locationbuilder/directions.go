package locationbuilder

import "openlrencoder/pkg/network"

// canTraverse reports whether edgeInThisDirection may legally be driven
// given the tag set's oneway restriction. edgeInThisDirection.Forward
// records whether this particular directed traversal aligns with the
// tag's own forward sense (true) or its backward sense (false); see
// anchor.candidates in virtual.go for how a half-edge anchor candidate
// maps onto this rule.
func canTraverse(oneway network.Oneway, edgeInThisDirection network.Edge) bool {
	return network.CanTraverse(oneway, edgeInThisDirection)
}

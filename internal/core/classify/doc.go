// Package classify maps raw permission grants to sharing types,
// audience types, roles, and risk. All functions are pure: no I/O,
// no state beyond the compiled sensitive-path matcher, so every
// observed grant always classifies to a value (Unknown variants
// instead of errors).
package classify

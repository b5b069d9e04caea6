// Package sanitize provides the deterministic text clean-up applied to every
// accepted translation: enumeration stripping, whitespace collapsing, ordered
// name substitution, and punctuation normalization.
//
// All functions are pure. NameMap keeps the order its pairs were declared in
// so substitution results do not depend on map iteration.
package sanitize

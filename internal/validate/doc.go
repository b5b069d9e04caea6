// Package validate checks raw provider replies before they are accepted into a
// project.
//
// Validate runs three checks in order and stops at the first failure: the
// reply must decode to a JSON array, its length must match the batch, and no
// element may still contain source-script characters. Accepted lines are
// passed through sanitize.Sanitize.
//
// Quality offers softer, advisory checks (empty output, odd length ratios,
// likely untranslated text) that never change a line's status.
package validate

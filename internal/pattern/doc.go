// Package pattern expands bounded pattern expressions into the complete,
// finite list of strings they match.
//
// Supported syntax:
//
//	abc        literal characters
//	\. \\ \n   escaped characters (\n \t \r \f \v \a \xHH \x{H...})
//	\d \w \s   ASCII digit, word and space classes
//	[a-z_0]    character classes with ranges and class escapes
//	(a|b)      groups and alternation, (?:...) is accepted as a plain group
//	a? a{3}    bounded repetition, a{1,4}
//	^ $        accepted at the very start and end only; every expansion is
//	           a whole word, so they match nothing
//
// Anything whose language is infinite or impractically large is rejected
// with UNBOUNDED_PATTERN: '*', '+', '{n,}', '.', negated classes and \D \W \S.
// Expansions larger than Options.MaxCandidates strings or Options.MaxBytes
// bytes of candidate text are rejected the same way.
//
// ORDERING:
//
// Expansion order is part of the contract because candidate positions decide
// combination indices. A class yields its members in declared order, an
// alternation yields its branches left to right, a concatenation varies its
// rightmost element fastest and a repetition yields counts in increasing
// order. Duplicates are dropped, keeping the first occurrence.
package pattern

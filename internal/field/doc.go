// Package field turns field specifications into ordered candidate lists.
//
// A field is one position of the generated word. Its candidates come either
// from a literal list ("a,b,c") or from the expansion of a bounded pattern
// (see package pattern). The position of each candidate in its list is its
// digit value in combination indices, so every list produced here is
// deterministic for a given input.
package field

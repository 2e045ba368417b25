package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crunch/internal/pattern"
)

func TestTokenize_NoSpecialCharacters(t *testing.T) {
	for _, s := range []string{"", "a", "password", "hello world", "ümlaut", "x|y", "tab\there"} {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, CandidateList{s}, Tokenize(s))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want CandidateList
	}{
		{"split", "a,b,c", CandidateList{"a", "b", "c"}},
		{"escaped separator", `a\,b,c`, CandidateList{"a,b", "c"}},
		{"escaped escape", `a\\,b`, CandidateList{`a\`, "b"}},
		{"escaped ordinary", `\abc`, CandidateList{"abc"}},
		{"trailing escape dropped", `ab\`, CandidateList{"ab"}},
		{"lone escape", `\`, CandidateList{""}},
		{"empty tokens kept", ",,", CandidateList{"", "", ""}},
		{"leading separator", ",a", CandidateList{"", "a"}},
		{"only escaped separators", `\,\,`, CandidateList{",,"}},
		{"unicode", "α,β", CandidateList{"α", "β"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.raw))
		})
	}
}

func TestParse_Literal(t *testing.T) {
	list, err := Parse(Literal{Raw: "x,y"})
	require.NoError(t, err)
	assert.Equal(t, CandidateList{"x", "y"}, list)

	list, err = Parse(&Literal{Raw: "z"})
	require.NoError(t, err)
	assert.Equal(t, CandidateList{"z"}, list)
}

func TestParse_Pattern(t *testing.T) {
	list, err := Parse(Pattern{Expr: "(a|b)(c|d)"})
	require.NoError(t, err)
	assert.Equal(t, CandidateList{"ac", "ad", "bc", "bd"}, list)
}

func TestParse_PatternErrors(t *testing.T) {
	_, err := Parse(Pattern{Expr: "a+"})
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
	assert.True(t, pattern.IsUnbounded(err), "pattern cause should be reachable through the field error")

	_, err = Parse(Pattern{Expr: "(a"})
	require.Error(t, err)
	assert.True(t, pattern.IsInvalid(err))
}

func TestParse_EmptyPattern(t *testing.T) {
	_, err := Parse(Pattern{Expr: ""})
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
	assert.Contains(t, err.Error(), "empty pattern")
}

func TestParse_Nil(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestParseAll_ReportsFieldPosition(t *testing.T) {
	_, err := ParseAll([]Spec{
		Literal{Raw: "a,b"},
		Pattern{Expr: "[0-9]"},
		Pattern{Expr: "x*"},
	})
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 3, fe.Field)
	assert.Contains(t, err.Error(), "field 3")
	assert.Equal(t, ErrCodeMalformedField, fe.ErrorCode())
}

func TestParseAll(t *testing.T) {
	set, err := ParseAll([]Spec{
		Literal{Raw: "x,y"},
		Pattern{Expr: "[1-3]"},
	})
	require.NoError(t, err)
	assert.Equal(t, Set{{"x", "y"}, {"1", "2", "3"}}, set)
	assert.Equal(t, []int{2, 3}, set.Sizes())
}

func TestParser_Normalize(t *testing.T) {
	const (
		decomposed = "e\u0301"
		composed   = "\u00e9"
	)
	p := NewParser(Options{Normalize: FormNFC})

	list, err := p.Parse(Literal{Raw: decomposed + ",x"})
	require.NoError(t, err)
	assert.Equal(t, CandidateList{composed, "x"}, list)

	list, err = NewParser(Options{Normalize: FormNFD}).Parse(Literal{Raw: composed})
	require.NoError(t, err)
	assert.Equal(t, CandidateList{decomposed}, list)
}

func TestParser_PatternLimit(t *testing.T) {
	p := NewParser(Options{Pattern: pattern.Options{MaxCandidates: 5}})
	_, err := p.Parse(Pattern{Expr: "[0-9]"})
	require.Error(t, err)
	assert.True(t, pattern.IsUnbounded(err))
}

func TestParseForm(t *testing.T) {
	for in, want := range map[string]Form{
		"":     FormNone,
		"none": FormNone,
		"NFC":  FormNFC,
		"nfkd": FormNFKD,
	} {
		got, err := ParseForm(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseForm("nfx")
	assert.Error(t, err)
}

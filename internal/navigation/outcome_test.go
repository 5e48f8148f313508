package navigation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		input []Target
		kind  OutcomeKind
	}{
		{"nil", nil, OutcomeNone},
		{"empty", []Target{}, OutcomeNone},
		{"one", []Target{target("a")}, OutcomeSingle},
		{"two", []Target{target("a"), target("b")}, OutcomeMultiple},
		{"three", []Target{target("c"), target("a"), target("b")}, OutcomeMultiple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Classify(tt.input)
			assert.Equal(t, tt.kind, o.Kind())
			assert.Len(t, o.Targets(), len(tt.input))
		})
	}
}

func TestClassify_MultiplePreservesOrder(t *testing.T) {
	in := []Target{target("z"), target("a"), target("m")}
	o := Classify(in)

	got, ok := o.Multiple()
	require.True(t, ok)
	if diff := cmp.Diff([]string{"z", "a", "m"}, names(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	_, ok = o.Single()
	assert.False(t, ok)
}

func TestClassify_DoesNotRetainInput(t *testing.T) {
	in := []Target{target("a"), target("b")}
	o := Classify(in)
	in[0] = target("x")

	got, _ := o.Multiple()
	assert.Equal(t, "a", got[0].Presentation().Text)

	got[1] = target("y")
	again, _ := o.Multiple()
	assert.Equal(t, "b", again[1].Presentation().Text)
}

func TestClassify_Single(t *testing.T) {
	o := Classify([]Target{target("only")})
	got, ok := o.Single()
	require.True(t, ok)
	assert.Equal(t, loc("only"), got.Location())

	_, ok = o.Multiple()
	assert.False(t, ok)
}

func TestTarget_Origin(t *testing.T) {
	plain := target("a")
	_, ok := plain.Origin()
	assert.False(t, ok)

	withOrigin := plain.AttributedTo("types")
	origin, ok := withOrigin.Origin()
	require.True(t, ok)
	assert.Equal(t, "types", origin)

	// The original value is untouched.
	_, ok = plain.Origin()
	assert.False(t, ok)
	assert.Equal(t, plain.Location(), withOrigin.Location())
}

func TestPresentation_String(t *testing.T) {
	p := Presentation{Text: "NewClient", Kind: "func", Detail: "lsp/client.go:26"}
	assert.Equal(t, "func NewClient  (lsp/client.go:26)", p.String())
	assert.Equal(t, "x", Presentation{Text: "x"}.String())
}

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0muji4/declnav/internal/navigation"
)

var items = []navigation.Presentation{
	{Text: "Run", Kind: "func", Detail: "a/a.go:3"},
	{Text: "Run", Kind: "func", Detail: "b/b.go:3"},
}

// pick shows items with input typed on stdin and returns the chosen index,
// or -1 on dismiss.
func pick(t *testing.T, input string) (int, string) {
	t.Helper()
	var errOut bytes.Buffer
	term := NewTerminal(strings.NewReader(input), &bytes.Buffer{}, &errOut)

	result := make(chan int, 2)
	require.NoError(t, term.Show(context.Background(), "Choose Declaration", items,
		func(i int) { result <- i },
		func() { result <- -1 },
	))

	select {
	case got := <-result:
		return got, errOut.String()
	case <-time.After(5 * time.Second):
		t.Fatal("no pick")
		return 0, ""
	}
}

func TestTerminal_Show(t *testing.T) {
	got, shown := pick(t, "2\n")
	assert.Equal(t, 1, got)
	assert.Contains(t, shown, "Choose Declaration:\n")
	assert.Contains(t, shown, "  1) func Run  (a/a.go:3)\n")
	assert.Contains(t, shown, "  2) func Run  (b/b.go:3)\n")
	assert.Contains(t, shown, "Pick [1-2]: ")

	got, _ = pick(t, "1")
	assert.Equal(t, 0, got, "a pick without newline at end of input")

	for _, input := range []string{"\n", "q\n", "", "two\n"} {
		got, _ := pick(t, input)
		assert.Equal(t, -1, got, "input %q", input)
	}
}

func TestTerminal_NavigateAndNotify(t *testing.T) {
	var out, errOut bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, &errOut)

	require.NoError(t, term.Navigate(context.Background(), navigation.Location{Path: "/ws/a.go", Line: 3, Column: 6}))
	term.Notify(context.Background(), navigation.Notice{Kind: navigation.NoticeNothingFound, Message: navigation.MessageNothingFound})
	term.Report(navigation.TitleResolving)

	assert.Equal(t, "/ws/a.go:3:6\n", out.String())
	assert.Equal(t, navigation.MessageNothingFound+"\n"+navigation.TitleResolving+"\n", errOut.String())

	sinks := term.Sinks()
	assert.NotNil(t, sinks.Report)
	assert.Same(t, term, sinks.Navigator)
}

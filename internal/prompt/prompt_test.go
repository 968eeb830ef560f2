package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTest(input string) (*Prompter, *strings.Builder) {
	out := &strings.Builder{}
	return New(Config{In: strings.NewReader(input), Out: out}), out
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"sí\n", true},
		{"n\n", false},
		{"maybe\ny\n", true},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			p, out := newTest(tt.input)
			assert.Equal(t, tt.want, p.Confirm("Continue?"))
			assert.True(t, strings.HasPrefix(out.String(), "Continue? (y/n): "))
		})
	}
}

func TestConfirm_NonInteractive(t *testing.T) {
	out := &strings.Builder{}
	p := New(Config{NonInteractive: true, Assume: true, In: strings.NewReader("n\n"), Out: out})
	assert.True(t, p.Confirm("Continue?"))
	assert.Empty(t, out.String())

	p = New(Config{NonInteractive: true})
	assert.False(t, p.Confirm("Continue?"))
}

func TestProceedWithMissing(t *testing.T) {
	p, out := newTest("y\n")
	assert.True(t, p.ProceedWithMissing([]string{"core.jar", "sky.zip"}))
	assert.Contains(t, out.String(), "  - core.jar\n  - sky.zip\n")
}

func TestMenu(t *testing.T) {
	items := []MenuItem{{Label: "forge.jar", Description: "Forge"}, {Label: "fabric.jar"}}
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"pick second", "2\n", 1},
		{"default", "\n", 0},
		{"cancel", "0\n", -1},
		{"retry after invalid", "7\nabc\n1\n", 0},
		{"eof", "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newTest(tt.input)
			assert.Equal(t, tt.want, p.Menu("Choose a loader", items, 0))
			assert.Contains(t, out.String(), "  1. forge.jar (default)\n     Forge\n  2. fabric.jar\n")
		})
	}

	p := New(Config{NonInteractive: true})
	assert.Equal(t, 1, p.Menu("Choose", items, 1))
}

func TestLine(t *testing.T) {
	p, _ := newTest("\n/opt/mc\n")
	assert.Equal(t, "/default", p.Line("Game directory", "/default"))
	assert.Equal(t, "/opt/mc", p.Line("Game directory", "/default"))
}

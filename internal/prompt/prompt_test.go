package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_EmbedsPathAndSource(t *testing.T) {
	source := "def add(a, b):\n    return a + b\n"
	p := Build("pkg/calc.py", source, nil)

	assert.NotEmpty(t, p.System)
	assert.Contains(t, p.User, "File Path: pkg/calc.py")
	assert.Contains(t, p.User, source, "source must be embedded verbatim")
	assert.Contains(t, p.User, "```python\n", "fence must carry the language tag")
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build("x.go", "package x\n", nil)
	b := Build("x.go", "package x\n", nil)
	assert.Equal(t, a, b)
}

func TestBuild_SourceNotValidated(t *testing.T) {
	// Build never inspects the source; even nonsense goes through verbatim.
	garbage := ")(*&^%$ not code at all"
	p := Build("broken.py", garbage, nil)
	assert.Contains(t, p.User, garbage)
}

func TestBuild_SystemInstructionsStable(t *testing.T) {
	p := Build("a.py", "x = 1", nil)
	q := Build("b.go", "package b", nil)
	assert.Equal(t, p.System, q.System, "system message must not depend on the input")
	assert.Contains(t, p.System, "test cases")
	assert.Contains(t, p.System, "code comments")
}

func TestBuild_WithContext(t *testing.T) {
	extra := &Context{
		ModulePath:    "example.com/demo",
		RecentCommits: []string{"abcd1234 add calculator", "ef567890 fix rounding"},
	}
	p := Build("calc.go", "package calc", extra)

	assert.Contains(t, p.User, "example.com/demo")
	assert.Contains(t, p.User, "abcd1234 add calculator")
	assert.Contains(t, p.User, "ef567890 fix rounding")

	// Context lines come after the embedded source.
	srcIdx := strings.Index(p.User, "package calc")
	ctxIdx := strings.Index(p.User, "example.com/demo")
	assert.Less(t, srcIdx, ctxIdx)
}

func TestBuild_EmptyContextFieldsOmitted(t *testing.T) {
	p := Build("calc.go", "package calc", &Context{})
	bare := Build("calc.go", "package calc", nil)
	assert.Equal(t, bare.User, p.User)
}

func TestLangTag(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"script.py", "python"},
		{"app.js", "javascript"},
		{"view.tsx", "typescript"},
		{"lib.rs", "rust"},
		{"Main.java", "java"},
		{"README", ""},
		{"data.csv", ""},
		{"UPPER.PY", "python"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LangTag(tt.path), "path %s", tt.path)
	}
}

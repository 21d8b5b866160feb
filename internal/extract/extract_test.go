package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package demo

import (
	"fmt"
	"strings"
)

// Greeter says hello.
type Greeter struct {
	Name string
}

// Greet prints a greeting.
func (g *Greeter) Greet() {
	fmt.Println(strings.ToUpper(g.Name))
}

type Speaker interface {
	Greet()
}

func helper() string {
	return format("x")
}

func format(s string) string {
	return s
}
`

func symbolNames(symbols []Symbol) []string {
	names := make([]string, 0, len(symbols))
	for _, s := range symbols {
		names = append(names, s.Name)
	}
	return names
}

func findSymbol(t *testing.T, symbols []Symbol, name string) Symbol {
	t.Helper()
	for _, s := range symbols {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %q not found in %v", name, symbolNames(symbols))
	return Symbol{}
}

func TestGoExtract(t *testing.T) {
	res, err := Go().Extract("demo.go", []byte(goSource))
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"Greeter", "Greet", "Speaker", "helper", "format"},
		symbolNames(res.Symbols))

	greeter := findSymbol(t, res.Symbols, "Greeter")
	assert.Equal(t, "struct", greeter.Kind)
	assert.Equal(t, "public", greeter.Visibility)
	assert.Equal(t, "Greeter says hello.", greeter.Doc)

	speaker := findSymbol(t, res.Symbols, "Speaker")
	assert.Equal(t, "interface", speaker.Kind)

	greet := findSymbol(t, res.Symbols, "Greet")
	assert.Equal(t, "method", greet.Kind)
	assert.Contains(t, greet.Signature, "func (g *Greeter) Greet()")
	assert.Greater(t, greet.EndLine, greet.StartLine)

	helper := findSymbol(t, res.Symbols, "helper")
	assert.Equal(t, "private", helper.Visibility)
}

func TestGoExtractTypeDocs(t *testing.T) {
	// A lone type's doc sits beside the type_declaration wrapper; a grouped
	// type's doc sits beside the type_spec itself. Both must be found.
	src := `package demo

// Point is a 2D coordinate.
type Point struct {
	X, Y int
}

type (
	// Meters is a length unit.
	Meters float64
	Feet   float64
)
`
	res, err := Go().Extract("types.go", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Point is a 2D coordinate.", findSymbol(t, res.Symbols, "Point").Doc)
	assert.Equal(t, "Meters is a length unit.", findSymbol(t, res.Symbols, "Meters").Doc)
	assert.Empty(t, findSymbol(t, res.Symbols, "Feet").Doc)
}

func TestGoExtractImports(t *testing.T) {
	res, err := Go().Extract("demo.go", []byte(goSource))
	require.NoError(t, err)

	var sources []string
	for _, imp := range res.Imports {
		sources = append(sources, imp.Source)
	}
	assert.ElementsMatch(t, []string{"fmt", "strings"}, sources)
}

func TestGoExtractCalls(t *testing.T) {
	res, err := Go().Extract("demo.go", []byte(goSource))
	require.NoError(t, err)

	byCaller := make(map[string][]string)
	for _, c := range res.Calls {
		byCaller[c.Caller] = append(byCaller[c.Caller], c.Callee)
	}

	assert.ElementsMatch(t, []string{"Println", "ToUpper"}, byCaller["Greet"])
	assert.Equal(t, []string{"format"}, byCaller["helper"])
}

const pySource = `import os
from collections import defaultdict


class Counter:
    """Counts things."""

    def add(self, item):
        self._bump(item)

    def _bump(self, item):
        pass


def main():
    c = Counter()
    c.add("x")
`

func TestPythonExtract(t *testing.T) {
	res, err := Python().Extract("counter.py", []byte(pySource))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Counter", "main"}, symbolNames(res.Symbols))

	counter := findSymbol(t, res.Symbols, "Counter")
	assert.Equal(t, "class", counter.Kind)
	assert.Equal(t, "Counts things.", counter.Doc)

	// Methods nest under their class.
	assert.ElementsMatch(t, []string{"add", "_bump"}, symbolNames(counter.Children))
	add := findSymbol(t, counter.Children, "add")
	assert.Equal(t, "method", add.Kind)
	bump := findSymbol(t, counter.Children, "_bump")
	assert.Equal(t, "private", bump.Visibility)

	var sources []string
	for _, imp := range res.Imports {
		sources = append(sources, imp.Source)
	}
	assert.ElementsMatch(t, []string{"os", "collections"}, sources)
}

func TestPythonExtractCalls(t *testing.T) {
	res, err := Python().Extract("counter.py", []byte(pySource))
	require.NoError(t, err)

	byCaller := make(map[string][]string)
	for _, c := range res.Calls {
		byCaller[c.Caller] = append(byCaller[c.Caller], c.Callee)
	}

	assert.Contains(t, byCaller["add"], "_bump")
	assert.ElementsMatch(t, []string{"Counter", "add"}, byCaller["main"])
}

const tsSource = `import { log } from "./log";

export interface Shape {
  area(): number;
}

export enum Color {
  Red,
  Green,
}

export class Circle {
  radius: number;

  area(): number {
    return Math.PI * this.radius * this.radius;
  }
}

const describe = (s: Shape) => {
  log(s.area());
};
`

func TestTypeScriptExtract(t *testing.T) {
	res, err := TypeScript().Extract("shapes.ts", []byte(tsSource))
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"Shape", "Color", "Circle", "describe"},
		symbolNames(res.Symbols))

	assert.Equal(t, "interface", findSymbol(t, res.Symbols, "Shape").Kind)
	assert.Equal(t, "enum", findSymbol(t, res.Symbols, "Color").Kind)

	circle := findSymbol(t, res.Symbols, "Circle")
	assert.Equal(t, "class", circle.Kind)
	assert.ElementsMatch(t, []string{"area"}, symbolNames(circle.Children))

	assert.Equal(t, "function", findSymbol(t, res.Symbols, "describe").Kind)

	require.Len(t, res.Imports, 1)
	assert.Equal(t, "./log", res.Imports[0].Source)
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		path      string
		supported bool
	}{
		{"main.go", true},
		{"app.py", true},
		{"index.js", true},
		{"component.tsx", true},
		{"README.md", false},
		{"photo.png", false},
		{"Makefile", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := r.Lookup(tt.path)
			if tt.supported {
				assert.NotNil(t, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestRegistryExtensions(t *testing.T) {
	r := NewRegistry()
	r.Register(Go(), "go")

	exts := r.Extensions()
	assert.True(t, exts["go"])
	assert.False(t, exts["py"])
}

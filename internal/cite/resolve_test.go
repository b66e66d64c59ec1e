// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/deepresearch/internal/registry"
	"github.com/pdiddy/deepresearch/pkg/types"
)

func testRegistry() *registry.Registry {
	reg := registry.New()
	reg.Register([]types.Source{
		{URL: "https://one.example", Title: "First Source"},
		{URL: "https://two.example", Title: "Second Source"},
	})
	return reg
}

func TestResolveSingleAndGroupMarkers(t *testing.T) {
	// Entry 3 is unknown: it must survive as a bare bracketed number.
	reg := testRegistry()
	draft := "Result A [1]. Result B [2, 3]."

	res := Resolve(draft, reg)

	want := "Result A [1](https://one.example). Result B [2](https://two.example), [3]."
	if res.Text != want {
		t.Errorf("Text = %q\nwant   %q", res.Text, want)
	}

	wantBib := []string{
		"1. First Source(https://one.example)",
		"2. Second Source(https://two.example)",
	}
	if !reflect.DeepEqual(res.Bibliography, wantBib) {
		t.Errorf("Bibliography = %v, want %v", res.Bibliography, wantBib)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	reg := testRegistry()
	draft := "Claim [1] and claims [2, 3], plus plain text."

	once := Resolve(draft, reg)
	twice := Resolve(once.Text, reg)

	if once.Text != twice.Text {
		t.Errorf("second resolution changed text:\nonce:  %q\ntwice: %q", once.Text, twice.Text)
	}
	if !reflect.DeepEqual(once.Bibliography, twice.Bibliography) {
		t.Errorf("second resolution changed bibliography")
	}
}

func TestResolveNeverDeletesMarkers(t *testing.T) {
	reg := testRegistry()
	draft := "Known [1], unknown [9], group [1, 9, 42]."

	res := Resolve(draft, reg)

	for _, want := range []string{"[1](https://one.example)", "[9]", "[42]"} {
		if !contains(res.Text, want) {
			t.Errorf("Text = %q, missing %q", res.Text, want)
		}
	}
}

func TestResolveNoMarkers(t *testing.T) {
	reg := testRegistry()
	draft := "No citations here. Arrays like a[0] in code are not markers either? a[i] is not."

	res := Resolve(draft, reg)
	// a[0] contains [0], which the pattern does match; entry 0 is never
	// registered so it stays bracketed and the text is otherwise unchanged.
	if !contains(res.Text, "a[0]") {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestResolveEmptyURLStaysBare(t *testing.T) {
	reg := registry.New()
	reg.Register([]types.Source{{URL: "", Title: "no url"}})

	res := Resolve("See [1].", reg)
	if res.Text != "See [1]." {
		t.Errorf("Text = %q, want unchanged bare marker", res.Text)
	}
}

func TestBibliographyPlaceholderTitle(t *testing.T) {
	reg := registry.New()
	reg.Register([]types.Source{{URL: "https://untitled.example"}})

	lines := Bibliography(reg)
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0] != "1. Untitled(https://untitled.example)" {
		t.Errorf("line = %q", lines[0])
	}
}

func TestBibliographyAscendingNoDuplicates(t *testing.T) {
	reg := registry.New()
	reg.Register([]types.Source{
		{URL: "https://a.example", Title: "A"},
		{URL: "https://b.example", Title: "B"},
	})
	// Re-registration must not create a duplicate entry.
	reg.Register([]types.Source{{URL: "https://a.example", Title: "A again"}})

	lines := Bibliography(reg)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0] != "1. A(https://a.example)" || lines[1] != "2. B(https://b.example)" {
		t.Errorf("lines = %v", lines)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}

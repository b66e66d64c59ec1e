// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"testing"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "already balanced",
			in:   `{"text": "abc", "phase": "done"}`,
			want: `{"text": "abc", "phase": "done"}`,
			ok:   true,
		},
		{
			name: "unterminated string",
			in:   `{"text": "abc`,
			want: `{"text": "abc"}`,
			ok:   true,
		},
		{
			name: "unterminated string with dangling escape",
			in:   `{"text": "abc\`,
			want: `{"text": "abc"}`,
			ok:   true,
		},
		{
			name: "unclosed object",
			in:   `{"text": "abc"`,
			want: `{"text": "abc"}`,
			ok:   true,
		},
		{
			name: "trailing comma before cut",
			in:   `{"text": "abc",`,
			want: `{"text": "abc"}`,
			ok:   true,
		},
		{
			name: "nested array and object",
			in:   `{"a": [1, 2, {"b": "c`,
			want: `{"a": [1, 2, {"b": "c"}]}`,
			ok:   true,
		},
		{
			name: "escaped quote inside string",
			in:   `{"text": "say \"hi`,
			want: `{"text": "say \"hi"}`,
			ok:   true,
		},
		{
			name: "not an object",
			in:   `plain text`,
			ok:   false,
		},
		{
			name: "mismatched closer",
			in:   `{"a": [1}`,
			ok:   false,
		},
		{
			name: "stray closing brace",
			in:   `{"a": 1}}`,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := repairJSON(tt.in)
			if ok != tt.ok {
				t.Fatalf("repairJSON(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if got != tt.want {
				t.Errorf("repairJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Every successful repair of a truncated input must unmarshal.
			var v map[string]any
			if err := json.Unmarshal([]byte(got), &v); err != nil {
				t.Errorf("repaired output does not parse: %v", err)
			}
		})
	}
}

func TestParseTurn(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantText  string
		wantPhase string
		wantErr   bool
	}{
		{
			name:      "clean response",
			in:        `{"text": "body", "phase": "continuation"}`,
			wantText:  "body",
			wantPhase: "continuation",
		},
		{
			name:      "prose around the object",
			in:        `Here is the turn: {"text": "body", "phase": "done"} hope that helps`,
			wantText:  "body",
			wantPhase: "done",
		},
		{
			name:     "truncated mid-string",
			in:       `{"text": "partial dra`,
			wantText: "partial dra",
		},
		{
			name:    "no object at all",
			in:      "just words",
			wantErr: true,
		},
		{
			name:    "unrepairable structure",
			in:      `{"a": [1}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn, err := parseTurn(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseTurn(%q) = %+v, want error", tt.in, turn)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTurn(%q): %v", tt.in, err)
			}
			if turn.Text != tt.wantText || turn.Phase != tt.wantPhase {
				t.Errorf("parseTurn(%q) = %+v, want text %q phase %q", tt.in, turn, tt.wantText, tt.wantPhase)
			}
		})
	}
}

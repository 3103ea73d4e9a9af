package ai

import (
	"testing"
)

func TestUnmarshalFlexible_VerdictVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Verdict
	}{
		{
			name:  "valid json object",
			input: `{"index":1,"same_entity":true}`,
			want:  Verdict{Index: 1, SameEntity: true},
		},
		{
			name:  "unquoted keys and single quotes",
			input: `{index: 2, reasoning: 'same block'}`,
			want:  Verdict{Index: 2, Reasoning: "same block"},
		},
		{
			name:  "trailing comma",
			input: `{"index":3,"same_entity":false,}`,
			want:  Verdict{Index: 3},
		},
		{
			name:  "missing end bracket",
			input: `{"index":4,"reasoning":"renamed`,
			want:  Verdict{Index: 4, Reasoning: "renamed"},
		},
		{
			name:  "stringified object",
			input: `"{\"index\": 5, \"same_entity\": true}"`,
			want:  Verdict{Index: 5, SameEntity: true},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"index\": 6\n}\n",
			want:  Verdict{Index: 6},
		},
		{
			name:  "json code fence",
			input: "```json\n{\"index\": 7, \"same_entity\": true}\n```",
			want:  Verdict{Index: 7, SameEntity: true},
		},
		{
			name:  "bare code fence",
			input: "```\n{\"index\": 8}\n```",
			want:  Verdict{Index: 8},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got Verdict
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	var got Verdict
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestGenerateSchema_RepairChoice(t *testing.T) {
	schema := GenerateSchema(&RepairChoice{})
	if schema == nil {
		t.Fatalf("GenerateSchema() returned nil")
	}
}

func TestParseVerdicts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Verdict
	}{
		{
			name:  "array with canonical key",
			input: `[{"index":0,"same_entity":true,"reasoning":"r"},{"index":1,"same_entity":false}]`,
			want:  []Verdict{{Index: 0, SameEntity: true, Reasoning: "r"}, {Index: 1}},
		},
		{
			name:  "alias keys",
			input: `[{"index":0,"is_same":true},{"index":1,"isSame":"yes"},{"index":"2","same":1}]`,
			want:  []Verdict{{Index: 0, SameEntity: true}, {Index: 1, SameEntity: true}, {Index: 2, SameEntity: true}},
		},
		{
			name:  "wrapped results",
			input: `{"results":[{"index":0,"same_entity":true}]}`,
			want:  []Verdict{{Index: 0, SameEntity: true}},
		},
		{
			name:  "single object",
			input: `{"index":0,"same_entity":true}`,
			want:  []Verdict{{Index: 0, SameEntity: true}},
		},
		{
			name:  "entry without index is dropped",
			input: `[{"same_entity":true},{"index":1,"same_entity":true}]`,
			want:  []Verdict{{Index: 1, SameEntity: true}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseVerdicts(tc.input)
			if err != nil {
				t.Fatalf("ParseVerdicts() error = %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("ParseVerdicts() got %d verdicts, want %d: %+v", len(got), len(tc.want), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("ParseVerdicts()[%d] = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestParseVerdicts_Garbage(t *testing.T) {
	if _, err := ParseVerdicts("not json at all"); err == nil {
		t.Fatalf("ParseVerdicts() expected error")
	}
}

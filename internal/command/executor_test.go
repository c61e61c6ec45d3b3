package command

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple words",
			input: "printer list",
			want:  []string{"printer", "list"},
		},
		{
			name:  "double quoted argument",
			input: `printer rename abc "Kitchen Printer"`,
			want:  []string{"printer", "rename", "abc", "Kitchen Printer"},
		},
		{
			name:  "single quoted argument",
			input: "print abc text 'hello world'",
			want:  []string{"print", "abc", "text", "hello world"},
		},
		{
			name:  "mixed quotes",
			input: `print abc text "it's fine"`,
			want:  []string{"print", "abc", "text", "it's fine"},
		},
		{
			name:  "extra whitespace",
			input: "  job   list  ",
			want:  []string{"job", "list"},
		},
		{
			name:  "empty",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCommand(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseCommand(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExecuteEmptyCommand(t *testing.T) {
	e := &Executor{}

	result := e.Execute("   ")
	if result.Success {
		t.Error("expected failure for empty command")
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	e := &Executor{}

	result := e.Execute("frobnicate")
	if result.Success {
		t.Error("expected failure for unknown command")
	}
}

package commands

import (
	"strings"
	"testing"
)

func TestParse_NonSlashCommand(t *testing.T) {
	tests := []string{
		"hello world",
		"",
		"   ",
		"help",
		"open the door",
		"this is not a command",
	}

	for _, input := range tests {
		result := Parse(input)
		if result != nil {
			t.Errorf("Parse(%q) = %v, want nil", input, result)
		}
	}
}

func TestParse_Help(t *testing.T) {
	tests := []string{
		"/help",
		"/HELP",
		"/Help",
		"  /help  ",
		"/help extra args ignored",
	}

	for _, input := range tests {
		result := Parse(input)
		if result == nil {
			t.Errorf("Parse(%q) = nil, want Help{}", input)
			continue
		}
		if _, ok := result.(Help); !ok {
			t.Errorf("Parse(%q) = %T, want Help", input, result)
		}
		if result.Type() != "help" {
			t.Errorf("Parse(%q).Type() = %q, want %q", input, result.Type(), "help")
		}
	}
}

func TestParse_Open(t *testing.T) {
	tests := []struct {
		input      string
		wantTarget string
	}{
		{"/open 3", "3"},
		{"/OPEN 12", "12"},
		{"/open 18b39af0-1c2d-4e5f-8a9b-0c1d2e3f4a5b", "18b39af0-1c2d-4e5f-8a9b-0c1d2e3f4a5b"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		if result == nil {
			t.Errorf("Parse(%q) = nil, want Open", tt.input)
			continue
		}
		op, ok := result.(Open)
		if !ok {
			t.Errorf("Parse(%q) = %T, want Open", tt.input, result)
			continue
		}
		if op.Target != tt.wantTarget {
			t.Errorf("Parse(%q).Target = %q, want %q", tt.input, op.Target, tt.wantTarget)
		}
	}
}

func TestParse_Open_NoTarget(t *testing.T) {
	result := Parse("/open")
	pe, ok := result.(ParseError)
	if !ok {
		t.Fatalf("Parse(\"/open\") = %T, want ParseError", result)
	}
	if !strings.Contains(pe.Message, "requires a book") {
		t.Errorf("Parse(\"/open\").Message = %q", pe.Message)
	}
}

func TestParse_NewBook(t *testing.T) {
	tests := []struct {
		input     string
		wantTitle string
	}{
		{"/new", ""},
		{"/new The Last Door", "The Last Door"},
		{"/NEW test", "test"},
		{"  /new  trimmed  ", "trimmed"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		if result == nil {
			t.Errorf("Parse(%q) = nil, want NewBook", tt.input)
			continue
		}
		nb, ok := result.(NewBook)
		if !ok {
			t.Errorf("Parse(%q) = %T, want NewBook", tt.input, result)
			continue
		}
		if nb.Title != tt.wantTitle {
			t.Errorf("Parse(%q).Title = %q, want %q", tt.input, nb.Title, tt.wantTitle)
		}
	}
}

func TestParse_Rename(t *testing.T) {
	tests := []struct {
		input     string
		wantTitle string
	}{
		{"/rename New Title", "New Title"},
		{"/RENAME test", "test"},
		{"/rename one two three", "one two three"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		if result == nil {
			t.Errorf("Parse(%q) = nil, want Rename", tt.input)
			continue
		}
		r, ok := result.(Rename)
		if !ok {
			t.Errorf("Parse(%q) = %T, want Rename", tt.input, result)
			continue
		}
		if r.Title != tt.wantTitle {
			t.Errorf("Parse(%q).Title = %q, want %q", tt.input, r.Title, tt.wantTitle)
		}
	}
}

func TestParse_Rename_NoTitle(t *testing.T) {
	tests := []string{
		"/rename",
		"/rename   ",
		"  /rename  ",
	}

	for _, input := range tests {
		result := Parse(input)
		pe, ok := result.(ParseError)
		if !ok {
			t.Errorf("Parse(%q) = %T, want ParseError", input, result)
			continue
		}
		if !strings.Contains(pe.Message, "requires a title") {
			t.Errorf("Parse(%q).Message = %q, want message containing 'requires a title'", input, pe.Message)
		}
		if pe.Type() != "error" {
			t.Errorf("Parse(%q).Type() = %q, want %q", input, pe.Type(), "error")
		}
	}
}

func TestParse_SelectModel(t *testing.T) {
	result := Parse("/model mistral-balanced")
	sm, ok := result.(SelectModel)
	if !ok {
		t.Fatalf("Parse(\"/model mistral-balanced\") = %T, want SelectModel", result)
	}
	if sm.ID != "mistral-balanced" {
		t.Errorf("ID = %q, want %q", sm.ID, "mistral-balanced")
	}

	if _, ok := Parse("/model").(ParseError); !ok {
		t.Error("Parse(\"/model\") should be a ParseError")
	}
}

func TestParse_SelectPersona(t *testing.T) {
	tests := []struct {
		input      string
		wantTarget string
	}{
		{"/persona 2", "2"},
		{"/persona Captain Vale", "Captain Vale"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		sp, ok := result.(SelectPersona)
		if !ok {
			t.Errorf("Parse(%q) = %T, want SelectPersona", tt.input, result)
			continue
		}
		if sp.Target != tt.wantTarget {
			t.Errorf("Parse(%q).Target = %q, want %q", tt.input, sp.Target, tt.wantTarget)
		}
	}

	if _, ok := Parse("/persona").(ParseError); !ok {
		t.Error("Parse(\"/persona\") should be a ParseError")
	}
}

func TestParse_Export(t *testing.T) {
	tests := []struct {
		input      string
		wantFormat string
	}{
		{"/export", "markdown"},
		{"/export markdown", "markdown"},
		{"/export md", "md"},
		{"/export html", "html"},
		{"/export HTML", "html"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		ex, ok := result.(Export)
		if !ok {
			t.Errorf("Parse(%q) = %T, want Export", tt.input, result)
			continue
		}
		if ex.Format != tt.wantFormat {
			t.Errorf("Parse(%q).Format = %q, want %q", tt.input, ex.Format, tt.wantFormat)
		}
	}

	result := Parse("/export pdf")
	pe, ok := result.(ParseError)
	if !ok {
		t.Fatalf("Parse(\"/export pdf\") = %T, want ParseError", result)
	}
	if !strings.Contains(pe.Message, "unknown export format") {
		t.Errorf("Message = %q", pe.Message)
	}
}

func TestParse_BareCommands(t *testing.T) {
	tests := []struct {
		input    string
		wantType string
	}{
		{"/books", "books"},
		{"/delete", "delete"},
		{"/models", "models"},
		{"/refresh-models", "refresh_models"},
		{"/personas", "personas"},
		{"/chats", "chats"},
		{"/prompts", "prompts"},
		{"/insight", "insight"},
		{"/commit", "commit"},
		{"/edit", "edit"},
		{"/copy", "copy"},
		{"/stop", "stop"},
		{"/quit", "quit"},
		{"/exit", "quit"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		if result == nil {
			t.Errorf("Parse(%q) = nil, want command of type %q", tt.input, tt.wantType)
			continue
		}
		if result.Type() != tt.wantType {
			t.Errorf("Parse(%q).Type() = %q, want %q", tt.input, result.Type(), tt.wantType)
		}
		if _, ok := result.(ParseError); ok {
			t.Errorf("Parse(%q) returned ParseError", tt.input)
		}
	}
}

func TestParse_UnknownCommand(t *testing.T) {
	tests := []string{
		"/unknown",
		"/foo",
		"/bar baz",
		"/close",
		"/regen",
	}

	for _, input := range tests {
		result := Parse(input)
		pe, ok := result.(ParseError)
		if !ok {
			t.Errorf("Parse(%q) = %T, want ParseError", input, result)
			continue
		}
		if !strings.Contains(pe.Message, "unknown command") {
			t.Errorf("Parse(%q).Message = %q, want message containing 'unknown command'", input, pe.Message)
		}
	}
}

func TestParse_SlashOnly(t *testing.T) {
	// A lone "/" is an invalid command, should return ParseError
	result := Parse("/")
	pe, ok := result.(ParseError)
	if !ok {
		t.Fatalf("Parse(\"/\") = %T, want ParseError", result)
	}
	if !strings.Contains(pe.Message, "unknown command") {
		t.Errorf("Parse(\"/\").Message = %q, want message containing 'unknown command'", pe.Message)
	}
}

func TestHelpText(t *testing.T) {
	help := HelpText()

	if help == "" {
		t.Error("HelpText() returned empty string")
	}

	// Verify all commands are documented
	expectedCommands := []string{
		"/help",
		"/books",
		"/open",
		"/new",
		"/rename",
		"/delete",
		"/models",
		"/model",
		"/refresh-models",
		"/personas",
		"/persona",
		"/chats",
		"/prompts",
		"/insight",
		"/commit",
		"/edit",
		"/export",
		"/copy",
		"/stop",
		"/quit",
	}

	for _, cmd := range expectedCommands {
		if !strings.Contains(help, cmd) {
			t.Errorf("HelpText() missing documentation for %q", cmd)
		}
	}
}

func TestCommandTypes(t *testing.T) {
	// Verify all command types return the expected string
	tests := []struct {
		cmd      Command
		wantType string
	}{
		{Help{}, "help"},
		{Library{}, "books"},
		{Open{}, "open"},
		{NewBook{}, "new"},
		{Rename{}, "rename"},
		{Delete{}, "delete"},
		{Models{}, "models"},
		{SelectModel{}, "model"},
		{RefreshModels{}, "refresh_models"},
		{Personas{}, "personas"},
		{SelectPersona{}, "persona"},
		{Chats{}, "chats"},
		{Prompts{}, "prompts"},
		{Insight{}, "insight"},
		{Commit{}, "commit"},
		{Edit{}, "edit"},
		{Export{}, "export"},
		{Copy{}, "copy"},
		{Stop{}, "stop"},
		{Quit{}, "quit"},
		{ParseError{}, "error"},
	}

	for _, tt := range tests {
		if got := tt.cmd.Type(); got != tt.wantType {
			t.Errorf("%T.Type() = %q, want %q", tt.cmd, got, tt.wantType)
		}
	}
}

func TestParse_WhitespaceHandling(t *testing.T) {
	// Verify proper whitespace handling
	tests := []struct {
		input string
		want  string // expected type
	}{
		{"   /help   ", "help"},
		{"\t/books\t", "books"},
		{"/new   ", "new"},
		{"/open   7", "open"},
	}

	for _, tt := range tests {
		result := Parse(tt.input)
		if result == nil {
			t.Errorf("Parse(%q) = nil, want command of type %q", tt.input, tt.want)
			continue
		}
		if result.Type() != tt.want {
			t.Errorf("Parse(%q).Type() = %q, want %q", tt.input, result.Type(), tt.want)
		}
	}
}

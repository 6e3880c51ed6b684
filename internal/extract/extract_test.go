// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"strings"
	"testing"
)

func TestFragments_Multiple(t *testing.T) {
	text := "Intro text.\n" +
		"```python\nprint('one')\n```\n" +
		"Some prose between.\n" +
		"```go\nfmt.Println(\"two\")\n```\n" +
		"Closing remarks."

	var got []Fragment
	for frag := range Fragments(text) {
		got = append(got, frag)
	}

	if len(got) != 2 {
		t.Fatalf("got %d fragments, want 2", len(got))
	}
	if got[0].Language != "python" || got[0].Content != "print('one')" {
		t.Errorf("fragment 0 = %+v", got[0])
	}
	if got[1].Language != "go" || got[1].Content != "fmt.Println(\"two\")" {
		t.Errorf("fragment 1 = %+v", got[1])
	}
}

func TestFragments_NoFences(t *testing.T) {
	for frag := range Fragments("just prose, no code at all") {
		t.Fatalf("unexpected fragment: %+v", frag)
	}
}

func TestFragments_UnclosedFence(t *testing.T) {
	text := "```python\nprint('never closed')"
	for frag := range Fragments(text) {
		t.Fatalf("unclosed fence yielded fragment: %+v", frag)
	}
}

func TestFragments_EmptyBlock(t *testing.T) {
	var got []Fragment
	for frag := range Fragments("```\n```") {
		got = append(got, frag)
	}
	if len(got) != 1 {
		t.Fatalf("got %d fragments, want 1", len(got))
	}
	if got[0].Content != "" || got[0].Language != "" {
		t.Errorf("empty block = %+v", got[0])
	}
}

func TestFragments_Restartable(t *testing.T) {
	seq := Fragments("```\nbody\n```")
	for range 2 {
		n := 0
		for range seq {
			n++
		}
		if n != 1 {
			t.Fatalf("pass yielded %d fragments, want 1", n)
		}
	}
}

func TestFragments_EarlyStop(t *testing.T) {
	text := "```\na\n```\n```\nb\n```\n```\nc\n```"
	n := 0
	for range Fragments(text) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("stopped at %d fragments, want 2", n)
	}
}

func TestFragments_TitleFromHeading(t *testing.T) {
	tests := []struct {
		name  string
		above string
		want  string
	}{
		{"markdown heading", "## Load Balancer", "Load Balancer"},
		{"bold annotation", "**config.yaml**", "config.yaml"},
		{"colon annotation", "Here is the parser:", "Here is the parser"},
		{"plain prose", "This paragraph explains things.", ""},
		{"blank", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := tt.above + "\n```python\npass\n```"
			for frag := range Fragments(text) {
				if frag.Title != tt.want {
					t.Errorf("title = %q, want %q", frag.Title, tt.want)
				}
				return
			}
			t.Fatal("no fragment yielded")
		})
	}
}

func TestFragments_FenceTagFirstTokenOnly(t *testing.T) {
	for frag := range Fragments("```Python title=x\npass\n```") {
		if frag.Language != "python" {
			t.Errorf("language = %q, want python", frag.Language)
		}
		return
	}
	t.Fatal("no fragment yielded")
}

func TestExtract_MinLength(t *testing.T) {
	short := "```python\npass\n```\n"
	long := "```python\n" + strings.Repeat("x = 1\n", 30) + "```"

	frags := Extract(short+long, 0)
	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1", len(frags))
	}
	if !strings.Contains(frags[0].Content, "x = 1") {
		t.Errorf("wrong fragment survived: %q", frags[0].Content)
	}

	// Threshold disabled by a tiny minimum keeps both.
	if got := Extract(short+long, 1); len(got) != 2 {
		t.Fatalf("minChars=1 got %d fragments, want 2", len(got))
	}
}

func TestTitleFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		language string
		want     string
	}{
		{"python class", "class DataLoader:\n    pass", "python", "DataLoader"},
		{"python def", "def process_items(x):\n    pass", "python", "process_items"},
		{"go type", "type Server struct {\n}", "go", "Server"},
		{"go method", "func (s *Server) Run() error {\n}", "go", "Run"},
		{"js function", "export async function fetchData() {}", "javascript", "fetchData"},
		{"leading comment", "# database setup script\nCREATE TABLE t;", "sql", "database setup script"},
		{"nothing", "x = 1\ny = 2", "python", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromContent(tt.content, tt.language); got != tt.want {
				t.Errorf("TitleFromContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	content := "#!/usr/bin/env python\nimport os\n\ndef main():\n    print(os.getcwd())\n"
	got := DetectLanguage(content)
	if got == "" {
		t.Skip("chroma could not classify sample")
	}
	if !strings.Contains(got, "python") {
		t.Errorf("DetectLanguage() = %q, want python-ish", got)
	}
}

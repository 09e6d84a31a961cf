package render

import (
	"testing"

	"github.com/dgallion1/tocgen/internal/heading"
	"github.com/dgallion1/tocgen/internal/outline"
)

type h struct {
	level  int
	text   string
	anchor string
}

func tree(hs ...h) *outline.Node {
	entries := make([]outline.Entry, len(hs))
	for i, x := range hs {
		entries[i] = outline.Entry{
			Heading: heading.Record{Level: x.level, Text: x.text, Line: i},
			Anchor:  x.anchor,
		}
	}
	return outline.Build(entries)
}

var sample = tree(
	h{1, "Intro", "intro"},
	h{2, "Setup", "setup"},
	h{2, "Setup", "setup-1"},
	h{1, "Usage", "usage"},
	h{3, "Flags", "flags"},
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name string
		opts func(*Options)
		want string
	}{
		{
			name: "default",
			opts: func(*Options) {},
			want: "- [Intro](#intro)\n" +
				"  - [Setup](#setup)\n" +
				"  - [Setup](#setup-1)\n" +
				"- [Usage](#usage)\n" +
				"  - [Flags](#flags)\n",
		},
		{
			name: "max depth",
			opts: func(o *Options) { o.MaxDepth = 1 },
			want: "- [Intro](#intro)\n- [Usage](#usage)\n",
		},
		{
			name: "min level promotes children",
			opts: func(o *Options) { o.MinLevel = 2 },
			want: "- [Setup](#setup)\n- [Setup](#setup-1)\n- [Flags](#flags)\n",
		},
		{
			name: "ordered",
			opts: func(o *Options) { o.Ordered = true },
			want: "1. [Intro](#intro)\n" +
				"   1. [Setup](#setup)\n" +
				"   2. [Setup](#setup-1)\n" +
				"2. [Usage](#usage)\n" +
				"   1. [Flags](#flags)\n",
		},
		{
			name: "fixed indent and bullet",
			opts: func(o *Options) { o.Indent = 4; o.Bullet = "*" },
			want: "* [Intro](#intro)\n" +
				"    * [Setup](#setup)\n" +
				"    * [Setup](#setup-1)\n" +
				"* [Usage](#usage)\n" +
				"    * [Flags](#flags)\n",
		},
		{
			name: "link prefix and crlf",
			opts: func(o *Options) { o.LinkPrefix = "README.md#"; o.MaxDepth = 1; o.Newline = "\r\n" },
			want: "- [Intro](README.md#intro)\r\n- [Usage](README.md#usage)\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.opts(&opts)
			got := string(Markdown(sample, opts))
			if got != tt.want {
				t.Errorf("expected:\n%s\ngot:\n%s", tt.want, got)
			}
		})
	}
}

func TestMarkdown_SkipLevelAtTop(t *testing.T) {
	got := string(Markdown(tree(h{3, "Deep", "deep"}, h{1, "Top", "top"}), DefaultOptions()))
	want := "- [Deep](#deep)\n- [Top](#top)\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestMarkdown_OrderedWideMarkers(t *testing.T) {
	hs := make([]h, 0, 11)
	for i := 0; i < 10; i++ {
		hs = append(hs, h{1, "S", "s"})
	}
	hs = append(hs, h{2, "Child", "child"})
	got := string(Markdown(tree(hs...), Options{Ordered: true, LinkPrefix: "#"}))
	want := "10. [S](#s)\n    1. [Child](#child)\n"
	if len(got) < len(want) || got[len(got)-len(want):] != want {
		t.Errorf("expected output to end with %q, got %q", want, got)
	}
}

func TestMarkdown_EscapesText(t *testing.T) {
	root := tree(h{1, "See [docs](http://x) for [0]", "see"}, h{1, "Weird id", "a b(c)"})
	got := string(Markdown(root, DefaultOptions()))
	want := "- [See docs for \\[0\\]](#see)\n- [Weird id](#a%20b%28c%29)\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	if got := Markdown(&outline.Node{}, DefaultOptions()); len(got) != 0 {
		t.Errorf("expected empty fragment, got %q", got)
	}
}

func TestMarkdown_Deterministic(t *testing.T) {
	a := Markdown(sample, DefaultOptions())
	b := Markdown(sample, DefaultOptions())
	if string(a) != string(b) {
		t.Error("rendering the same outline twice produced different output")
	}
}

func TestHTML(t *testing.T) {
	root := tree(h{1, "Intro", "intro"}, h{2, "Q&amp;A <b>", "qa"}, h{1, "Usage", "usage"})
	got, err := HTML(root, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<ul>\n" +
		"<li><a href=\"#intro\">Intro</a>\n" +
		"<ul>\n" +
		"<li><a href=\"#qa\">Q&amp;A</a></li>\n" +
		"</ul>\n" +
		"</li>\n" +
		"<li><a href=\"#usage\">Usage</a></li>\n" +
		"</ul>\n"
	if string(got) != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestHTML_Ordered(t *testing.T) {
	opts := DefaultOptions()
	opts.Ordered = true
	got, err := HTML(tree(h{1, "One", "one"}), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<ol>\n<li><a href=\"#one\">One</a></li>\n</ol>\n"
	if string(got) != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRender_Dispatch(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = FormatHTML
	got, err := Render(tree(h{1, "X", "x"}), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got[:4]) != "<ul>" {
		t.Errorf("expected html output, got %q", got)
	}

	opts.Format = "rst"
	if _, err := Render(sample, opts); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "MD": FormatMarkdown, "html": FormatHTML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q): expected %q, got %q (err %v)", in, want, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}

package preproc

import "testing"

func segmentsOf(t *testing.T, input string) []Segment {
	t.Helper()
	segs, _ := New().Segments(input)
	return segs
}

func processView(t *testing.T, input string) string {
	t.Helper()
	out, _ := New().Process(input)
	return out
}

func TestSegments_Template(t *testing.T) {
	segs := segmentsOf(t, "{{t|a|k=v}}")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d: %#v", len(segs), segs)
	}

	tpl, ok := segs[0].(Template)
	if !ok {
		t.Fatalf("expected Template, got %T", segs[0])
	}
	if tpl.Source() != "{{t|a|k=v}}" {
		t.Errorf("source = %q", tpl.Source())
	}
	if len(tpl.Name) != 1 || tpl.Name[0].(Text).Raw != "t" {
		t.Errorf("name = %#v", tpl.Name)
	}
	if len(tpl.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(tpl.Args))
	}
	if tpl.Args[0].Named() {
		t.Error("first arg should be positional")
	}
	if v := tpl.Args[0].Value[0].(Text).Raw; v != "a" {
		t.Errorf("positional value = %q", v)
	}
	if !tpl.Args[1].Named() {
		t.Fatal("second arg should be named")
	}
	if n := tpl.Args[1].Name[0].(Text).Raw; n != "k" {
		t.Errorf("arg name = %q", n)
	}
	if v := tpl.Args[1].Value[0].(Text).Raw; v != "v" {
		t.Errorf("arg value = %q", v)
	}
}

func TestSegments_TemplateBOLFlag(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"{{t}}", true},
		{"x{{t}}", false},
		{"a\n{{t}}", true},
	}
	for _, tt := range tests {
		segs := segmentsOf(t, tt.input)
		var tpl *Template
		for _, s := range segs {
			if tp, ok := s.(Template); ok {
				tpl = &tp
				break
			}
		}
		if tpl == nil {
			t.Fatalf("%q: no template parsed", tt.input)
		}
		if tpl.BOL != tt.want {
			t.Errorf("%q: BOL = %v, want %v", tt.input, tpl.BOL, tt.want)
		}
	}
}

func TestSegments_NestedTemplate(t *testing.T) {
	segs := segmentsOf(t, "{{a|{{b}}}}")
	tpl, ok := segs[0].(Template)
	if !ok {
		t.Fatalf("expected Template, got %T", segs[0])
	}
	if len(tpl.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(tpl.Args))
	}
	if _, ok := tpl.Args[0].Value[0].(Template); !ok {
		t.Errorf("expected nested template, got %T", tpl.Args[0].Value[0])
	}
}

func TestSegments_Argument(t *testing.T) {
	segs := segmentsOf(t, "{{{1|def}}}")
	arg, ok := segs[0].(Argument)
	if !ok {
		t.Fatalf("expected Argument, got %T", segs[0])
	}
	if arg.Name[0].(Text).Raw != "1" {
		t.Errorf("name = %#v", arg.Name)
	}
	if len(arg.Defaults) != 1 || arg.Defaults[0][0].(Text).Raw != "def" {
		t.Errorf("defaults = %#v", arg.Defaults)
	}
}

func TestSegments_MalformedTemplateFallsThrough(t *testing.T) {
	segs := segmentsOf(t, "{{oops")
	if len(segs) != 1 {
		t.Fatalf("expected 1 merged text segment, got %d", len(segs))
	}
	if txt, ok := segs[0].(Text); !ok || txt.Raw != "{{oops" {
		t.Errorf("got %#v", segs[0])
	}
}

func TestSegments_LinkIsOpaque(t *testing.T) {
	segs := segmentsOf(t, "[[a|{{t}}]]")
	link, ok := segs[0].(Link)
	if !ok {
		t.Fatalf("expected Link, got %T", segs[0])
	}
	if link.Source() != "[[a|{{t}}]]" {
		t.Errorf("source = %q", link.Source())
	}
	foundTemplate := false
	for _, s := range link.Body {
		if _, ok := s.(Template); ok {
			foundTemplate = true
		}
	}
	if !foundTemplate {
		t.Errorf("link body should contain the template: %#v", link.Body)
	}
}

func TestSegments_TextMerging(t *testing.T) {
	segs := segmentsOf(t, "a=b")
	if len(segs) != 1 {
		t.Fatalf("expected merged text, got %d segments", len(segs))
	}
	if segs[0].(Text).Raw != "a=b" {
		t.Errorf("got %q", segs[0].(Text).Raw)
	}
}

func TestProcess_CommentAloneSwallowsOneNewline(t *testing.T) {
	if got := processView(t, "x\n<!-- c -->\ny"); got != "x\ny" {
		t.Errorf("got %q, want %q", got, "x\ny")
	}
}

func TestProcess_CommentAloneAbsorbsBlanks(t *testing.T) {
	if got := processView(t, "x\n  <!-- c -->  \ny"); got != "x\ny" {
		t.Errorf("got %q, want %q", got, "x\ny")
	}
}

func TestProcess_FirstLineCommentException(t *testing.T) {
	in := "<!-- c -->\ny"
	if got := processView(t, in); got != in {
		t.Errorf("got %q, want comment preserved: %q", got, in)
	}

	pp := New(WithStripCommentsOnFirstLine(true))
	got, _ := pp.Process(in)
	if got != "y" {
		t.Errorf("with strip option: got %q, want %q", got, "y")
	}
}

func TestProcess_InlineCommentKept(t *testing.T) {
	in := "a <!-- c --> b"
	if got := processView(t, in); got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestProcess_UnclosedCommentConsumesToEOF(t *testing.T) {
	pp := New()
	out, diags := pp.Process("a <!-- open")
	if out != "a " {
		t.Errorf("out = %q, want %q", out, "a ")
	}
	if len(diags) == 0 {
		t.Error("expected an unclosed-comment diagnostic")
	}
}

func TestProcess_TemplateVerbatimWithoutResolver(t *testing.T) {
	in := "a {{t|x}} b"
	if got := processView(t, in); got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestProcess_IncludeTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		view  string
		incl  string
	}{
		{
			name:  "noinclude",
			input: "a<noinclude>b</noinclude>c",
			view:  "abc",
			incl:  "ac",
		},
		{
			name:  "includeonly",
			input: "a<includeonly>b</includeonly>c",
			view:  "ac",
			incl:  "abc",
		},
		{
			name:  "onlyinclude",
			input: "a<onlyinclude>b</onlyinclude>c",
			view:  "abc",
			incl:  "b",
		},
		{
			name:  "dangling close ignored",
			input: "a</noinclude>b",
			view:  "ab",
			incl:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := New()
			if got, _ := pp.ProcessFor(tt.input, ModeView); got != tt.view {
				t.Errorf("view: got %q, want %q", got, tt.view)
			}
			if got, _ := pp.ProcessFor(tt.input, ModeInclude); got != tt.incl {
				t.Errorf("include: got %q, want %q", got, tt.incl)
			}
		})
	}
}

func TestProcess_UnclosedIncludeRunsToEOF(t *testing.T) {
	pp := New()
	out, diags := pp.ProcessFor("a<noinclude>b", ModeView)
	if out != "ab" {
		t.Errorf("out = %q, want %q", out, "ab")
	}
	if len(diags) == 0 {
		t.Error("expected an unclosed-tag diagnostic")
	}
}

func TestSegments_OnlyincludeDoesNotNest(t *testing.T) {
	segs := segmentsOf(t, "<onlyinclude>x<onlyinclude>y</onlyinclude></onlyinclude>")

	var includes, ignores int
	for _, s := range segs {
		switch s.(type) {
		case Include:
			includes++
		case Ignore:
			ignores++
		}
	}
	if includes != 1 {
		t.Errorf("top-level includes = %d, want 1 (no nesting)", includes)
	}
	if ignores != 1 {
		t.Errorf("ignores = %d, want 1 for the dangling close", ignores)
	}
}

type upperResolver struct{}

func (upperResolver) ExpandTemplate(tpl *Template) (string, bool) {
	return "[expanded]", true
}

func (upperResolver) ExpandArgument(*Argument) (string, bool) {
	return "", false
}

func TestProcess_ResolverSeam(t *testing.T) {
	pp := New(WithResolver(upperResolver{}))
	out, _ := pp.Process("a {{t}} b {{{p}}}")
	if out != "a [expanded] b {{{p}}}" {
		t.Errorf("got %q", out)
	}
}

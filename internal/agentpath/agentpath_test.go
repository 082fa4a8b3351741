package agentpath

import "testing"

func TestNormalizePOSIX(t *testing.T) {
	cases := map[string]string{
		"":                ".",
		"a/b/../c":        "a/c",
		"/a/b/../c":       "/a/c",
		"/a/b/../../../c": "/c",
		"a/./b":           "a/b",
		"a/b/":            "a/b/",
		"/":               "/",
		".":               ".",
		"..":              "..",
		"../..":           "../..",
		"a/../../b":       "../b",
	}
	for input, want := range cases {
		if got := NormalizePOSIX(input); got != want {
			t.Errorf("NormalizePOSIX(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizePOSIXIdempotent(t *testing.T) {
	inputs := []string{"a/b/../c/./d/", "/x/y/../../z", "foo//bar///baz"}
	for _, input := range inputs {
		once := NormalizePOSIX(input)
		twice := NormalizePOSIX(once)
		if once != twice {
			t.Errorf("normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestParsePOSIX(t *testing.T) {
	got := ParsePOSIX("/a/b/c.txt")
	want := PathComponents{Root: "/", Dir: "/a/b", Base: "c.txt", Ext: ".txt", Name: "c"}
	if got != want {
		t.Errorf("ParsePOSIX mismatch: got %+v, want %+v", got, want)
	}

	got = ParsePOSIX(".gitignore")
	want = PathComponents{Root: "", Dir: "", Base: ".gitignore", Ext: "", Name: ".gitignore"}
	if got != want {
		t.Errorf("ParsePOSIX(.gitignore) mismatch: got %+v, want %+v", got, want)
	}
}

func TestNormalizeWindows(t *testing.T) {
	cases := map[string]string{
		`C:\a\..\b`:     `C:\b`,
		`C:\a\.\b`:      `C:\a\b`,
		`\`:             `\`,
		`C:`:            `C:`,
		`C:\`:           `C:\`,
		`\\server\share`: `\\server\share`,
		`a\b\`:          `a\b\`,
	}
	for input, want := range cases {
		if got := NormalizeWindows(input); got != want {
			t.Errorf("NormalizeWindows(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsAbsolute(t *testing.T) {
	if !IsAbsolutePOSIX("/a/b") {
		t.Error("expected /a/b to be absolute")
	}
	if IsAbsolutePOSIX("a/b") {
		t.Error("expected a/b to be relative")
	}
	if !IsAbsoluteWindows(`C:\a`) {
		t.Error(`expected C:\a to be absolute`)
	}
	if IsAbsoluteWindows(`C:a`) {
		t.Error("expected drive-relative C:a to be relative")
	}
	if !IsAbsoluteWindows(`\\server\share\x`) {
		t.Error("expected UNC path to be absolute")
	}
}

func TestRelativePOSIX(t *testing.T) {
	if got := RelativePOSIX("/a/b", "/a/b/c"); got != "c" {
		t.Errorf("RelativePOSIX = %q, want %q", got, "c")
	}
	if got := RelativePOSIX("/a/b/c", "/a/x"); got != "../../x" {
		t.Errorf("RelativePOSIX = %q, want %q", got, "../../x")
	}
}

func TestLockKey(t *testing.T) {
	// LockKey dispatches by runtime.GOOS; on non-Windows it is the identity
	// function, which is what this test environment exercises.
	if got := LockKey("/a/B"); got != "/a/B" {
		t.Errorf("LockKey = %q, want unchanged input on this platform", got)
	}
}

package sanitize

import "testing"

var samples = []string{
	"",
	"   ",
	"Jane Doe",
	"  Jane    Doe  ",
	"<script>alert('x')</script>",
	"tab\tseparated\tvalues",
	"line one\n\n\n\nline two",
	"bell\x07 and null\x00 and del\x7f",
	"a <",
	" < a > ",
	"mixed \r\n endings \n\n\n\n",
	"\x01 leading control",
	"JANE@Example.COM ",
	"(219) 555-1234 ext. 9",
	"non\u00a0breaking \u00a0 space",
	"emoji 🧹 cleaning",
	"a \n \n \n b",
}

func TestSanitizersAreIdempotent(t *testing.T) {
	funcs := map[string]func(string) string{
		"String":  String,
		"Message": Message,
		"Phone":   Phone,
		"Email":   Email,
	}
	for name, fn := range funcs {
		for _, sample := range samples {
			once := fn(sample)
			twice := fn(once)
			if once != twice {
				t.Fatalf("%s not idempotent for %q: once=%q twice=%q", name, sample, once, twice)
			}
		}
	}
}

func TestString(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"  Jane    Doe  ":         "Jane Doe",
		"<b>bold</b>":             "bbold/b",
		"tab\tand\nnewline":       "tab and newline",
		"bell\x07ring":            "bellring",
		"vertical\x0btab":         "verticaltab",
		"non\u00a0 breaking":      "non breaking",
	}
	for in, want := range cases {
		if got := String(in); got != want {
			t.Fatalf("String(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMessage(t *testing.T) {
	cases := map[string]string{
		"Please   call me":            "Please call me",
		"one\n\n\n\n\ntwo":            "one\n\ntwo",
		"keep\ttabs\nand\nlines":      "keep\ttabs\nand\nlines",
		"  <i>hi</i>\x00 ":            "ihi/i",
		"\n\n\nleading and trailing\n": "leading and trailing",
	}
	for in, want := range cases {
		if got := Message(in); got != want {
			t.Fatalf("Message(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhone(t *testing.T) {
	cases := map[string]string{
		" (219) 555-1234 ": "(219) 555-1234",
		"+1.219.555.1234":  "+12195551234",
		"call 2195551234":  "2195551234",
		"":                 "",
	}
	for in, want := range cases {
		if got := Phone(in); got != want {
			t.Fatalf("Phone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmail(t *testing.T) {
	cases := map[string]string{
		" Jane@Example.COM ": "jane@example.com",
		"<jane@example.com>": "jane@example.com",
		"a <":                "a",
	}
	for in, want := range cases {
		if got := Email(in); got != want {
			t.Fatalf("Email(%q) = %q, want %q", in, got, want)
		}
	}
}

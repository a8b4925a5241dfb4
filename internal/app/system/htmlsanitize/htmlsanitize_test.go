package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/system/htmlsanitize"
)

func TestComment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \n ", ""},
		{"plain text", "Looks good", "<p>Looks good</p>"},
		{"plain text newlines", "one\ntwo", "<p>one<br>two</p>"},
		{"comparison is not markup", "5 < 10", "<p>5 &lt; 10</p>"},
		{"inline formatting kept", "<p><strong>Bold</strong> and <em>italic</em></p>", "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{"list kept", "<ul><li>a</li><li>b</li></ul>", "<ul><li>a</li><li>b</li></ul>"},
		{"code kept", "<pre><code>x := 1</code></pre>", "<pre><code>x := 1</code></pre>"},
		{"script removed", "<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
		{"heading dropped to text", "<h1>Big</h1>", "Big"},
		{"image removed", `<p>x<img src="https://a.test/i.png"></p>`, "<p>x</p>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := htmlsanitize.Comment(tc.input); got != tc.want {
				t.Errorf("Comment(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestComment_Links(t *testing.T) {
	got := htmlsanitize.Comment(`<a href="https://example.com">Link</a>`)
	if !strings.Contains(got, `href="https://example.com"`) || !strings.Contains(got, "nofollow") {
		t.Errorf("expected safe link with nofollow, got %q", got)
	}

	got = htmlsanitize.Comment(`<a href="javascript:alert('xss')">Click</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("expected javascript: href removed, got %q", got)
	}
}

func TestComment_Mentions(t *testing.T) {
	ok := `<span data-user-id="65a1b2c3d4e5f60718293a4b">@ada</span>`
	if got := htmlsanitize.Comment(ok); got != ok {
		t.Errorf("expected mention preserved, got %q", got)
	}

	got := htmlsanitize.Comment(`<span data-user-id="x onmouseover=alert(1)" onclick="evil()">@x</span>`)
	if strings.Contains(got, "data-user-id") || strings.Contains(got, "onclick") {
		t.Errorf("expected bad attributes stripped, got %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"Hello, World!", true},
		{"5 < 10", true},
		{"5 > 3", true},
		{"<p>Hello</p>", false},
	}
	for _, tc := range tests {
		if got := htmlsanitize.IsPlainText(tc.in); got != tc.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"A & B", "<p>A &amp; B</p>"},
		{"Line 1\r\nLine 2", "<p>Line 1<br>Line 2</p>"},
		{"<script>", "<p>&lt;script&gt;</p>"},
	}
	for _, tc := range tests {
		if got := htmlsanitize.PlainTextToHTML(tc.in); got != tc.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

package format

import "testing"

func TestContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello", "hello"},
		{"escapes html", `<script>alert("x")</script>`, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;"},
		{"strong", "a **bold** move", "a <strong>bold</strong> move"},
		{"emphasis", "an *italic* word", "an <em>italic</em> word"},
		{"both", "**one** and *two*", "<strong>one</strong> and <em>two</em>"},
		{"newlines", "line one\nline two", "line one<br>line two"},
		{"crlf", "a\r\nb\rc", "a<br>b<br>c"},
		{"escaped before markup", "**<b>**", "<strong>&lt;b&gt;</strong>"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Content(tc.input); got != tc.expected {
				t.Errorf("Content(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestPlain(t *testing.T) {
	if got := Plain("**Title**\r\n*soft* words"); got != "Title\nsoft words" {
		t.Errorf("unexpected plain output: %q", got)
	}
}

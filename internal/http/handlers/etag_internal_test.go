package handlers

import "testing"

func TestEtagMatches(t *testing.T) {
	tag := contentETag([]byte(`[{"id":"1"}]`))

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"empty", "", false},
		{"exact", tag, true},
		{"weak", "W/" + tag, true},
		{"in list", `"other", ` + tag, true},
		{"wildcard", "*", true},
		{"different", `"nope"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := etagMatches(tc.header, tag); got != tc.want {
				t.Fatalf("etagMatches(%q) = %v, want %v", tc.header, got, tc.want)
			}
		})
	}
}

func TestContentETag_Stable(t *testing.T) {
	a := contentETag([]byte(`{"a":1}`))
	b := contentETag([]byte(`{"a":1}`))
	c := contentETag([]byte(`{"a":2}`))

	if a != b {
		t.Fatalf("same payload produced %s and %s", a, b)
	}
	if a == c {
		t.Fatalf("different payloads share tag %s", a)
	}
}

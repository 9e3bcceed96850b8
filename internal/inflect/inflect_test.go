package inflect

import "testing"

func TestPluralize(t *testing.T) {
	cases := map[string]string{
		"category": "categories",
		"post":     "posts",
		"box":      "boxes",
		"glass":    "glasses",
		"branch":   "branches",
		"dish":     "dishes",
		"tag":      "tags",
		"":         "",
	}
	for in, want := range cases {
		if got := Pluralize(in); got != want {
			t.Errorf("Pluralize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSingularize(t *testing.T) {
	cases := map[string]string{
		"categories": "category",
		"boxes":      "box",
		"posts":      "post",
		"author":     "author",
		"class":      "class",
		"tags":       "tag",
	}
	for in, want := range cases {
		if got := Singularize(in); got != want {
			t.Errorf("Singularize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	words := []string{"post", "tag", "category", "box", "branch", "comment", "user", "order"}
	for _, w := range words {
		if got := Singularize(Pluralize(w)); got != w {
			t.Errorf("Singularize(Pluralize(%q)) = %q, want %q", w, got, w)
		}
	}
}

package media

import "testing"

func TestKindOf(t *testing.T) {
	for _, tc := range []struct {
		url  string
		want Kind
	}{
		{"https://cdn.example.com/media/clip.mp4", KindVideo},
		{"https://cdn.example.com/media/clip.MOV", KindVideo},
		{"https://cdn.example.com/media/clip.webm?sig=abc", KindVideo},
		{"https://cdn.example.com/media/photo.jpg", KindImage},
		{"https://cdn.example.com/media/photo.png", KindImage},
		{"https://cdn.example.com/media/noext", KindImage},
		{"", KindImage},
		// Extension must be on the path, not the query.
		{"https://cdn.example.com/media/photo.jpg?fallback=clip.mp4", KindImage},
	} {
		if got := KindOf(tc.url); got != tc.want {
			t.Errorf("KindOf(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

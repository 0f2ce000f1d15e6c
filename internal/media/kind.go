// Package media adapts the catalog to its media host: uploads go to an
// S3-compatible bucket, and stored URLs are classified as image or video by
// a path extension sniff.
package media

import (
	"net/url"
	"path"
	"strings"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".m4v":  {},
	".webm": {},
}

// KindOf classifies a media URL: video when the path ends in a recognized
// video extension, image otherwise. Query strings and fragments are
// ignored; an unparseable URL counts as an image.
func KindOf(rawURL string) Kind {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return KindImage
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo
	}
	return KindImage
}

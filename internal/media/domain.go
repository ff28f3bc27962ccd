package media

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind classifies a media asset.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Asset is stored media metadata; the bytes live at URL.
type Asset struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var titleCaser = cases.Title(language.English)

// NormalizeTitle trims, collapses inner whitespace and title-cases the name
// so listings sort and display consistently.
func NormalizeTitle(title string) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(strings.Join(fields, " "))
}

// ValidKind reports whether the kind is one the platform stores.
func ValidKind(kind Kind) bool {
	switch kind {
	case KindImage, KindVideo, KindAudio:
		return true
	default:
		return false
	}
}

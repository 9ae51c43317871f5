package data

import "strings"

// SchemaVersion is the version of the canonical in-memory shape produced by
// the normalization functions.
const SchemaVersion = 2

const (
	inlinePrefix = "data:"
	blobPrefix   = "blob:"
)

// ImageRef points at an image: either an inline data URL or a key into the
// blob store.
type ImageRef string

func (r ImageRef) IsInline() bool {
	return strings.HasPrefix(string(r), inlinePrefix)
}

// BlobKey returns the blob store key when the reference is not inline.
func (r ImageRef) BlobKey() (string, bool) {
	if !strings.HasPrefix(string(r), blobPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(string(r), blobPrefix)
	return key, key != ""
}

func BlobRef(key string) ImageRef {
	return ImageRef(blobPrefix + key)
}

type Series struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description,omitempty"`
	Cover       ImageRef  `json:"cover,omitempty"`
	Views       int       `json:"views,omitempty"`
	Hot         bool      `json:"hot,omitempty"`
	CreatedAt   int64     `json:"createdAt,omitempty"`
	Chapters    []Chapter `json:"chapters,omitempty"`
}

type Chapter struct {
	ID          string     `json:"id"`
	SeriesID    string     `json:"seriesId"`
	Name        string     `json:"name"`
	Number      float64    `json:"number"`
	Lang        string     `json:"lang"`
	ReleaseDate string     `json:"releaseDate"`
	Pages       []ImageRef `json:"pages"`
}

type Account struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}

type Session struct {
	AccountID string `json:"accountId"`
}

type HistoryEntry struct {
	SeriesID  string `json:"seriesId"`
	ChapterID string `json:"chapterId,omitempty"`
	At        int64  `json:"at"`
}

// Snapshot is the backup and remote publishing format.
type Snapshot struct {
	Version  int       `json:"version"`
	Series   []Series  `json:"series"`
	Chapters []Chapter `json:"chapters"`
	Members  []Account `json:"members,omitempty"`
}

// LatestEntry pairs a chapter with the series it belongs to.
type LatestEntry struct {
	Series  Series  `json:"series"`
	Chapter Chapter `json:"chapter"`
}

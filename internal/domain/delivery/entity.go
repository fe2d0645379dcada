package delivery

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// LinkType classifies a download link
type LinkType string

const (
	LinkPhotos LinkType = "photos"
	LinkVideos LinkType = "videos"
	LinkRaw    LinkType = "raw"
	LinkAlbum  LinkType = "album"
	LinkOther  LinkType = "other"
)

// DownloadLink points at an external download (gallery, archive, album)
type DownloadLink struct {
	Type        LinkType `json:"type"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
}

// DownloadLinks is stored as a JSONB array
type DownloadLinks []DownloadLink

// Value implements driver.Valuer
func (l DownloadLinks) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *DownloadLinks) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = DownloadLinks{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("download links: unsupported type %T", src)
	}
	return json.Unmarshal(data, l)
}

// Delivery holds the final deliverables of a completed booking
type Delivery struct {
	ID            uuid.UUID      `db:"id"`
	BookingID     uuid.UUID      `db:"booking_id"`
	PhotoURLs     pq.StringArray `db:"photo_urls"`
	VideoURLs     pq.StringArray `db:"video_urls"`
	DownloadLinks DownloadLinks  `db:"download_links"`
	Notes         sql.NullString `db:"notes"`
	DeliveredAt   time.Time      `db:"delivered_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

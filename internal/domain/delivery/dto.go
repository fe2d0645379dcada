package delivery

import (
	"time"

	"github.com/google/uuid"
)

// DownloadLinkRequest is one download link in a request
type DownloadLinkRequest struct {
	Type        string `json:"type" validate:"required,download_type"`
	URL         string `json:"url" validate:"required,max=2048"`
	Description string `json:"description" validate:"max=500"`
}

// CreateDeliveryRequest for POST /delivery
type CreateDeliveryRequest struct {
	BookingID     uuid.UUID             `json:"booking_id" validate:"required"`
	PhotoURLs     []string              `json:"photo_urls" validate:"omitempty,max=1000,dive,required,max=2048"`
	VideoURLs     []string              `json:"video_urls" validate:"omitempty,max=200,dive,required,max=2048"`
	DownloadLinks []DownloadLinkRequest `json:"download_links" validate:"omitempty,max=50,dive"`
	Notes         string                `json:"notes" validate:"max=5000"`
	DeliveredAt   *time.Time            `json:"delivered_at"`
}

// UpdateDeliveryRequest for PUT /delivery/{booking_id}. Omitted fields stay
// unchanged; an explicit empty list clears that list.
type UpdateDeliveryRequest struct {
	PhotoURLs     []string              `json:"photo_urls" validate:"omitempty,max=1000,dive,required,max=2048"`
	VideoURLs     []string              `json:"video_urls" validate:"omitempty,max=200,dive,required,max=2048"`
	DownloadLinks []DownloadLinkRequest `json:"download_links" validate:"omitempty,max=50,dive"`
	Notes         *string               `json:"notes" validate:"omitempty,max=5000"`
}

// DeliveryResponse represents delivery in API response
type DeliveryResponse struct {
	ID            uuid.UUID      `json:"id"`
	BookingID     uuid.UUID      `json:"booking_id"`
	PhotoURLs     []string       `json:"photo_urls"`
	VideoURLs     []string       `json:"video_urls"`
	DownloadLinks []DownloadLink `json:"download_links"`
	Notes         *string        `json:"notes,omitempty"`
	DeliveredAt   string         `json:"delivered_at"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// MediaResponse describes an uploaded media file
type MediaResponse struct {
	Kind         string           `json:"kind"`
	URL          string           `json:"url"`
	ThumbnailURL string           `json:"thumbnail_url,omitempty"`
	ContentType  string           `json:"content_type"`
	Size         int              `json:"size"`
	Width        int              `json:"width,omitempty"`
	Height       int              `json:"height,omitempty"`
	Delivery     DeliveryResponse `json:"delivery"`
}

func DeliveryResponseFromEntity(d *Delivery) DeliveryResponse {
	resp := DeliveryResponse{
		ID:            d.ID,
		BookingID:     d.BookingID,
		PhotoURLs:     nonNil(d.PhotoURLs),
		VideoURLs:     nonNil(d.VideoURLs),
		DownloadLinks: d.DownloadLinks,
		DeliveredAt:   d.DeliveredAt.Format(time.RFC3339),
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
	if resp.DownloadLinks == nil {
		resp.DownloadLinks = []DownloadLink{}
	}
	if d.Notes.Valid {
		resp.Notes = &d.Notes.String
	}
	return resp
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func toLinks(reqs []DownloadLinkRequest) DownloadLinks {
	links := make(DownloadLinks, len(reqs))
	for i, l := range reqs {
		links[i] = DownloadLink{Type: LinkType(l.Type), URL: l.URL, Description: l.Description}
	}
	return links
}

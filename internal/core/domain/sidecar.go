package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

const (
	MinRating = 0
	MaxRating = 10
)

// OutfitSidecar is the metadata.json document stored next to an outfit image.
type OutfitSidecar struct {
	Details          string           `json:"details"`
	Rating           int              `json:"rating"`
	Genre            string           `json:"genre"`
	Date             string           `json:"date,omitempty"`
	ClothingAnalysis ClothingAnalysis `json:"clothingAnalysis"`
	CreatedAt        string           `json:"createdAt"`
	OwnerID          string           `json:"ownerId"`
	ImageURL         string           `json:"imageUrl"`
}

// WishlistSidecar is the metadata.json document stored next to a wishlist image.
// Timer fields are epoch milliseconds.
type WishlistSidecar struct {
	Name             string           `json:"name"`
	Notes            string           `json:"notes"`
	TimerStarted     *int64           `json:"timerStarted,omitempty"`
	TimerEndTime     *int64           `json:"timerEndTime,omitempty"`
	ClothingAnalysis ClothingAnalysis `json:"clothingAnalysis"`
	CreatedAt        string           `json:"createdAt"`
	OwnerID          string           `json:"ownerId"`
	ImageURL         string           `json:"imageUrl"`
}

type rawAnalysis struct {
	Outerwear *string `json:"outerwear"`
	Top       *string `json:"top"`
	Bottom    *string `json:"bottom"`
	Shoes     *string `json:"shoes"`
}

type rawSidecar struct {
	Details          *string      `json:"details"`
	Rating           *float64     `json:"rating"`
	Genre            *string      `json:"genre"`
	Date             *string      `json:"date"`
	Name             *string      `json:"name"`
	Notes            *string      `json:"notes"`
	TimerStarted     *int64       `json:"timerStarted"`
	TimerEndTime     *int64       `json:"timerEndTime"`
	ClothingAnalysis *rawAnalysis `json:"clothingAnalysis"`
	CreatedAt        *string      `json:"createdAt"`
	OwnerID          *string      `json:"ownerId"`
	UserID           *string      `json:"userId"`
}

// DecodeOutfitSidecar validates an outfit sidecar and fills explicit defaults.
// Failures are *MalformedRecordError.
func DecodeOutfitSidecar(data []byte) (Outfit, error) {
	raw, base, err := decodeBase(data)
	if err != nil {
		return Outfit{}, err
	}

	out := Outfit{
		RecordBase:       base,
		Details:          str(raw.Details),
		Genre:            NormalizeGenre(str(raw.Genre)),
		ClothingAnalysis: raw.ClothingAnalysis.value(),
	}

	if raw.Rating != nil {
		rating := *raw.Rating
		if rating != math.Trunc(rating) {
			return Outfit{}, malformed("rating", "not an integer", nil)
		}
		if rating < MinRating || rating > MaxRating {
			return Outfit{}, malformed("rating", "out of range", nil)
		}
		out.Rating = int(rating)
	}

	if date := strings.TrimSpace(str(raw.Date)); date != "" {
		parsed, err := ParseDate(date)
		if err != nil {
			return Outfit{}, malformed("date", "invalid instant", err)
		}
		out.Date = &parsed
	}
	return out, nil
}

// DecodeWishlistSidecar validates a wishlist sidecar and fills explicit defaults.
func DecodeWishlistSidecar(data []byte) (WishlistItem, error) {
	raw, base, err := decodeBase(data)
	if err != nil {
		return WishlistItem{}, err
	}

	out := WishlistItem{
		RecordBase:       base,
		Name:             str(raw.Name),
		Notes:            str(raw.Notes),
		ClothingAnalysis: raw.ClothingAnalysis.value(),
	}
	if raw.TimerStarted != nil && raw.TimerEndTime != nil {
		if *raw.TimerEndTime < *raw.TimerStarted {
			return WishlistItem{}, malformed("timerEndTime", "ends before start", nil)
		}
		started := time.UnixMilli(*raw.TimerStarted).UTC()
		ends := time.UnixMilli(*raw.TimerEndTime).UTC()
		out.TimerStartedAt = &started
		out.TimerEndsAt = &ends
	}
	return out, nil
}

func decodeBase(data []byte) (rawSidecar, RecordBase, error) {
	var raw rawSidecar
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw, RecordBase{}, malformed("", "not a json object", nil)
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return raw, RecordBase{}, malformed("", "invalid json", err)
	}

	created := strings.TrimSpace(str(raw.CreatedAt))
	if created == "" {
		return raw, RecordBase{}, malformed("createdAt", "missing", nil)
	}
	createdAt, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return raw, RecordBase{}, malformed("createdAt", "invalid instant", err)
	}

	owner := str(raw.OwnerID)
	if owner == "" {
		owner = str(raw.UserID)
	}
	return raw, RecordBase{CreatedAt: createdAt.UTC(), OwnerID: owner}, nil
}

// ParseDate accepts an RFC 3339 instant or a calendar date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (a *rawAnalysis) value() ClothingAnalysis {
	if a == nil {
		return ClothingAnalysis{}
	}
	return ClothingAnalysis{
		Outerwear: str(a.Outerwear),
		Top:       str(a.Top),
		Bottom:    str(a.Bottom),
		Shoes:     str(a.Shoes),
	}
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

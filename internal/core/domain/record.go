package domain

import (
	"strings"
	"time"
)

type Namespace string

const (
	NamespaceOutfits  Namespace = "outfits"
	NamespaceWishlist Namespace = "wishlist"
)

func (n Namespace) Valid() bool {
	return n == NamespaceOutfits || n == NamespaceWishlist
}

func ParseNamespace(raw string) (Namespace, bool) {
	ns := Namespace(strings.ToLower(strings.TrimSpace(raw)))
	return ns, ns.Valid()
}

// ClothingAnalysis holds the tags derived by the image analyzer. Empty means unknown.
type ClothingAnalysis struct {
	Outerwear string `json:"outerwear"`
	Top       string `json:"top"`
	Bottom    string `json:"bottom"`
	Shoes     string `json:"shoes"`
}

func (a ClothingAnalysis) IsEmpty() bool {
	return strings.TrimSpace(a.Outerwear) == "" &&
		strings.TrimSpace(a.Top) == "" &&
		strings.TrimSpace(a.Bottom) == "" &&
		strings.TrimSpace(a.Shoes) == ""
}

type RecordBase struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	OwnerID   string    `json:"ownerId"`
}

// Record is either an Outfit or a WishlistItem.
type Record interface {
	Base() RecordBase
	Namespace() Namespace
}

type Outfit struct {
	RecordBase
	Details          string           `json:"details"`
	Rating           int              `json:"rating"`
	Genre            string           `json:"genre"`
	Date             *time.Time       `json:"date,omitempty"`
	ClothingAnalysis ClothingAnalysis `json:"clothingAnalysis"`
}

func (o Outfit) Base() RecordBase { return o.RecordBase }

func (Outfit) Namespace() Namespace { return NamespaceOutfits }

// EffectiveDate is the user-chosen date, or createdAt when none was picked.
func (o Outfit) EffectiveDate() time.Time {
	if o.Date != nil && !o.Date.IsZero() {
		return *o.Date
	}
	return o.CreatedAt
}

type WishlistItem struct {
	RecordBase
	Name             string           `json:"name"`
	Notes            string           `json:"notes"`
	TimerStartedAt   *time.Time       `json:"timerStartedAt,omitempty"`
	TimerEndsAt      *time.Time       `json:"timerEndsAt,omitempty"`
	ClothingAnalysis ClothingAnalysis `json:"clothingAnalysis"`
}

func (w WishlistItem) Base() RecordBase { return w.RecordBase }

func (WishlistItem) Namespace() Namespace { return NamespaceWishlist }

type UploadResult struct {
	RecordID  string    `json:"recordId"`
	ImageURL  string    `json:"imageUrl"`
	Namespace Namespace `json:"namespace"`
}

// IndexEntry is the structured-database row written after a successful upload.
type IndexEntry struct {
	OwnerID      string    `json:"ownerId"`
	Namespace    Namespace `json:"namespace"`
	RecordID     string    `json:"recordId"`
	ImagePath    string    `json:"imagePath"`
	MetadataPath string    `json:"metadataPath"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NamespaceCount struct {
	Namespace Namespace `json:"namespace"`
	Records   int       `json:"records"`
}

// Package layout maps records onto the blob hierarchy
// <namespace root>/<owner>/<record>/{image.jpg, metadata.json}.
package layout

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
)

const (
	ImageFile    = "image.jpg"
	MetadataFile = "metadata.json"

	ImageContentType    = "image/jpeg"
	MetadataContentType = "application/json"

	outfitRoot   = "images"
	wishlistRoot = "images/wishlist"
	usersRoot    = "users"
	timersRoot   = "timers"
)

type Paths struct {
	Folder   string
	Image    string
	Metadata string
}

// Folder is one enumerated record folder.
type Folder struct {
	RecordID string
	Prefix   string
}

type Manager struct {
	store ports.BlobStore
}

func New(store ports.BlobStore) *Manager {
	return &Manager{store: store}
}

func Root(ns domain.Namespace) string {
	if ns == domain.NamespaceWishlist {
		return wishlistRoot
	}
	return outfitRoot
}

func OwnerPrefix(ns domain.Namespace, ownerID string) string {
	return Root(ns) + "/" + ownerID + "/"
}

// RecordPaths derives the two blob paths of a record. It does no I/O.
func RecordPaths(ns domain.Namespace, ownerID, recordID string) Paths {
	folder := OwnerPrefix(ns, ownerID) + recordID + "/"
	return Paths{
		Folder:   folder,
		Image:    folder + ImageFile,
		Metadata: folder + MetadataFile,
	}
}

func PreferencesPath(ownerID string) string {
	return usersRoot + "/" + ownerID + "/preferences.json"
}

func TimerKey(ownerID, itemID string) string {
	return timersRoot + "/" + ownerID + "/" + itemID
}

// ValidateSegment rejects ids that would escape their folder.
func ValidateSegment(kind, value string) error {
	switch {
	case strings.TrimSpace(value) == "":
		return domain.WrapError(domain.ErrInvalidInput, "validate "+kind, fmt.Errorf("%s is required", kind))
	case value == "." || value == "..":
		return domain.WrapError(domain.ErrInvalidInput, "validate "+kind, fmt.Errorf("%s %q is reserved", kind, value))
	case strings.ContainsAny(value, "/\\"):
		return domain.WrapError(domain.ErrInvalidInput, "validate "+kind, fmt.Errorf("%s %q contains a path separator", kind, value))
	}
	return nil
}

// ValidateOwner is ValidateSegment plus the segments an owner folder cannot
// take. The wishlist root sits inside the outfit root, so an owner named like
// it would write outfits into the wishlist tree.
func ValidateOwner(ownerID string) error {
	if err := ValidateSegment("owner id", ownerID); err != nil {
		return err
	}
	if reserved := path.Base(wishlistRoot); strings.EqualFold(strings.TrimSpace(ownerID), reserved) {
		return domain.WrapError(domain.ErrInvalidInput, "validate owner id", fmt.Errorf("owner id %q is reserved", ownerID))
	}
	return nil
}

// RecordFolders lists the record folders an owner has in ns. No folders is not an error.
func (m *Manager) RecordFolders(ctx context.Context, ns domain.Namespace, ownerID string) ([]Folder, error) {
	if err := ValidateOwner(ownerID); err != nil {
		return nil, err
	}
	prefix := OwnerPrefix(ns, ownerID)
	children, err := m.store.ListChildPrefixes(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	folders := make([]Folder, 0, len(children))
	for _, child := range children {
		id := strings.TrimSuffix(strings.TrimPrefix(child, prefix), "/")
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		folders = append(folders, Folder{RecordID: id, Prefix: child})
	}
	return folders, nil
}

package checks

import (
	"bytes"
	"context"

	"github.com/techmad220/RavenX/internal/model"
)

// dirListingMarker is the text signature of server-generated directory
// indexes (Apache, nginx, and friends all emit it).
var dirListingMarker = []byte("Index of /")

// DirectoryListingCheck flags pages that render a directory index.
type DirectoryListingCheck struct{}

// NewDirectoryListingCheck creates a DirectoryListingCheck.
func NewDirectoryListingCheck() *DirectoryListingCheck {
	return &DirectoryListingCheck{}
}

// Name returns the analyzer name.
func (c *DirectoryListingCheck) Name() string {
	return "dir_listing"
}

// Run reports dir_listing when an HTML page contains the index marker.
func (c *DirectoryListingCheck) Run(_ context.Context, page *model.Page, _ *Session) ([]model.Finding, error) {
	if !page.IsHTML() {
		return nil, nil
	}
	if !bytes.Contains(page.Body, dirListingMarker) {
		return nil, nil
	}
	return []model.Finding{model.NewFinding("dir_listing", page.URL, "Page appears to show directory listing.")}, nil
}

// Ensure DirectoryListingCheck implements Check.
var _ Check = (*DirectoryListingCheck)(nil)

package checks

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/techmad220/RavenX/internal/model"
)

const (
	// exifMaxImageSize limits the size of images fetched for analysis.
	exifMaxImageSize = 5 * 1024 * 1024

	// exifMaxImagesPerPage bounds the number of image fetches a single
	// page can trigger.
	exifMaxImagesPerPage = 5
)

// exifImagePattern matches URLs of formats that carry EXIF segments.
var exifImagePattern = regexp.MustCompile(`(?i)\.(jpe?g|tiff?|heic)(?:\?[^"'\s]*)?$`)

// exifGPSTags are the EXIF tags that disclose a capture location.
var exifGPSTags = map[string]bool{
	"GPSLatitude":     true,
	"GPSLongitude":    true,
	"GPSLatitudeRef":  true,
	"GPSLongitudeRef": true,
}

// exifInterestingTags are non-GPS tags worth surfacing: device
// identifiers, software fingerprints, authorship, and timestamps.
var exifInterestingTags = map[string]bool{
	"Make":               true,
	"Model":              true,
	"SerialNumber":       true,
	"CameraSerialNumber": true,
	"BodySerialNumber":   true,
	"LensSerialNumber":   true,
	"Software":           true,
	"ProcessingSoftware": true,
	"Artist":             true,
	"Author":             true,
	"Copyright":          true,
	"XPAuthor":           true,
	"DateTimeOriginal":   true,
	"DateTimeDigitized":  true,
	"DateTime":           true,
	"HostComputer":       true,
}

// EXIFCheck fetches same-host images referenced by a page and inspects
// their EXIF metadata. Camera serials, authorship tags, and above all
// GPS coordinates routinely survive uploads on sites that do not strip
// metadata.
//
// Design decision: We only fetch images from the page's own host
// because:
// 1. Scope governance applies to every request the scanner makes
// 2. Third-party CDN images say nothing about the target's hygiene
// 3. Off-host fetches would bypass the per-host budget accounting
type EXIFCheck struct{}

// NewEXIFCheck creates an EXIFCheck.
func NewEXIFCheck() *EXIFCheck {
	return &EXIFCheck{}
}

// Name returns the analyzer name.
func (c *EXIFCheck) Name() string {
	return "exif"
}

// Run reports exif_gps_location and exif_metadata findings for EXIF
// data found in images on the page. Each image URL is analyzed at most
// once per scan.
func (c *EXIFCheck) Run(ctx context.Context, page *model.Page, session *Session) ([]model.Finding, error) {
	if !page.IsHTML() {
		return nil, nil
	}

	base, err := url.Parse(page.FinalURL)
	if err != nil {
		return nil, nil
	}
	pageHost := page.Host()

	findings := make([]model.Finding, 0)
	fetched := 0
	for _, src := range imageSources(page.Body) {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		// Inline images need no fetch, no host policy, and no claim:
		// the page itself is only processed once.
		if strings.HasPrefix(src, "data:image/") {
			findings = append(findings, c.analyzeDataURL(src, page.URL)...)
			continue
		}

		ref, err := url.Parse(src)
		if err != nil {
			continue
		}
		imgURL := base.ResolveReference(ref).String()
		if !exifImagePattern.MatchString(imgURL) {
			continue
		}
		if model.HostOf(imgURL) != pageHost {
			continue
		}
		if fetched >= exifMaxImagesPerPage {
			break
		}
		if !session.Claim("exif:" + imgURL) {
			continue
		}
		fetched++

		data, err := c.fetchImage(ctx, session.Client, imgURL)
		if err != nil || data == nil {
			continue
		}
		findings = append(findings, c.analyzeImageData(data, imgURL, imgURL)...)
	}
	return findings, nil
}

// fetchImage downloads an image, bounded by exifMaxImageSize.
func (c *EXIFCheck) fetchImage(ctx context.Context, client *http.Client, imgURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > exifMaxImageSize {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(resp.Body, exifMaxImageSize))
}

// analyzeDataURL decodes a base64 data URL and analyzes its EXIF data.
func (c *EXIFCheck) analyzeDataURL(dataURL, pageURL string) []model.Finding {
	parts := strings.SplitN(dataURL, ",", 2)
	if len(parts) != 2 {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return nil
		}
	}
	return c.analyzeImageData(data, pageURL, "inline image on "+pageURL)
}

// analyzeImageData extracts EXIF entries and folds them into findings
// attached to findingURL. GPS tags produce one exif_gps_location
// finding per image; other interesting tags are collected into one
// exif_metadata finding.
func (c *EXIFCheck) analyzeImageData(data []byte, findingURL, imageRef string) []model.Finding {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	var gpsTags, metaTags []string
	for _, entry := range entries {
		switch {
		case exifGPSTags[entry.TagName]:
			gpsTags = append(gpsTags, entry.TagName+"="+entry.Formatted)
		case exifInterestingTags[entry.TagName]:
			metaTags = append(metaTags, entry.TagName+"="+entry.Formatted)
		}
	}

	// Findings attach to the image, not the referencing page, so the
	// same image linked from many pages fingerprints identically.
	var findings []model.Finding
	if len(gpsTags) > 0 {
		evidence := fmt.Sprintf("GPS EXIF in %s: %s", imageRef, strings.Join(gpsTags, "; "))
		findings = append(findings, model.NewFinding("exif_gps_location", findingURL, evidence))
	}
	if len(metaTags) > 0 {
		evidence := fmt.Sprintf("EXIF metadata in %s: %s", imageRef, strings.Join(metaTags, "; "))
		findings = append(findings, model.NewFinding("exif_metadata", findingURL, evidence))
	}
	return findings
}

// Ensure EXIFCheck implements Check.
var _ Check = (*EXIFCheck)(nil)

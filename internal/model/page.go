package model

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Page represents one fetched page as presented to checks.
// It holds the raw response data; checks parse what they need from it.
//
// Design decision: We keep the body as raw bytes rather than pre-parsing
// HTML because:
// 1. Raw bytes are needed for binary analysis (EXIF, signatures)
// 2. Most checks only inspect headers or do cheap substring scans
// 3. Checks that need a DOM parse it on demand, keeping the fetch path flat
type Page struct {
	// URL is the URL as it was dequeued from the frontier. Query-parameter
	// checks operate on this value.
	URL string `json:"url"`

	// FinalURL is the URL after redirects were followed. Link extraction
	// resolves relative references against it.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Header contains all HTTP response headers in canonical form.
	Header http.Header `json:"headers"`

	// ContentType is the MIME type from the Content-Type header,
	// stripped of parameters like charset.
	ContentType string `json:"content_type"`

	// Body is the response body, truncated to MaxBodySize.
	Body []byte `json:"-"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetched_at"`
}

// MaxBodySize is the maximum number of body bytes retained per page.
// Larger responses are truncated. 2 MB covers any realistic HTML
// document while bounding per-worker memory.
const MaxBodySize = 2 * 1024 * 1024

// HeaderValue returns the first value of the named header, or "".
func (p *Page) HeaderValue(name string) string {
	return p.Header.Get(name)
}

// Query returns the parsed query parameters of the page URL.
// Returns an empty Values on parse failure.
func (p *Page) Query() url.Values {
	u, err := url.Parse(p.URL)
	if err != nil {
		return url.Values{}
	}
	return u.Query()
}

// Host returns the lowercased network location of the page URL.
func (p *Page) Host() string {
	return HostOf(p.URL)
}

// IsHTML returns true if the content type indicates an HTML document.
func (p *Page) IsHTML() bool {
	return p.ContentType == "text/html" ||
		p.ContentType == "application/xhtml+xml"
}

// IsImage returns true if the content type indicates an image.
func (p *Page) IsImage() bool {
	return strings.HasPrefix(p.ContentType, "image/")
}

// TruncateBody enforces MaxBodySize. Call after setting Body.
func (p *Page) TruncateBody() {
	if len(p.Body) > MaxBodySize {
		p.Body = p.Body[:MaxBodySize]
	}
}

// Form represents an HTML form element found on a page.
type Form struct {
	// Action is the form's action URL. May be relative or absolute.
	Action string `json:"action"`

	// Method is the HTTP method, uppercased. Defaults to GET when the
	// HTML omits it.
	Method string `json:"method"`

	// Inputs contains the form's input, select, and textarea fields.
	Inputs []FormInput `json:"inputs,omitempty"`
}

// FormInput represents a single field in a form.
type FormInput struct {
	// Type is the input type (text, password, hidden, ...).
	Type string `json:"type"`

	// Name is the input's name attribute.
	Name string `json:"name"`

	// Value is the input's default value.
	Value string `json:"value,omitempty"`
}

// HasInput reports whether the form carries an input with the given
// name, compared case-insensitively.
func (f *Form) HasInput(name string) bool {
	for _, in := range f.Inputs {
		if strings.EqualFold(in.Name, name) {
			return true
		}
	}
	return false
}

// IsPost reports whether the form submits via POST.
func (f *Form) IsPost() bool {
	return strings.EqualFold(f.Method, "POST")
}

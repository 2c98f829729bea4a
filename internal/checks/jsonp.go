package checks

import (
	"context"
	"net/http"
	"strings"

	"github.com/techmad220/RavenX/internal/model"
)

// jsonpProbeToken is the callback name injected into JSONP parameters.
const jsonpProbeToken = "rxjsonp123"

// jsonpParamNames are the query parameters JSONP endpoints commonly
// accept a callback through.
var jsonpParamNames = []string{"callback", "cb", "jsonp"}

// JSONPCallbackCheck probes callback parameters and flags endpoints
// that wrap their response in a caller-chosen function name.
type JSONPCallbackCheck struct{}

// NewJSONPCallbackCheck creates a JSONPCallbackCheck.
func NewJSONPCallbackCheck() *JSONPCallbackCheck {
	return &JSONPCallbackCheck{}
}

// Name returns the analyzer name.
func (c *JSONPCallbackCheck) Name() string {
	return "jsonp"
}

// Run reports jsonp_reflection for every callback-style parameter whose
// probe response begins with the injected function name.
func (c *JSONPCallbackCheck) Run(ctx context.Context, page *model.Page, session *Session) ([]model.Finding, error) {
	query := page.Query()

	var findings []model.Finding
	for _, key := range jsonpParamNames {
		if !query.Has(key) {
			continue
		}
		probeURL, err := replaceQueryParam(page.URL, key, jsonpProbeToken)
		if err != nil {
			continue
		}
		body, _, err := fetchProbe(ctx, session.Client, probeURL)
		if err != nil {
			continue
		}
		head := string(body)
		if len(head) > 200 {
			head = head[:200]
		}
		if strings.HasPrefix(strings.TrimSpace(head), jsonpProbeToken+"(") {
			f := model.NewFinding("jsonp_reflection", probeURL, "JSONP function wrapper observed")
			f.Method = http.MethodGet
			findings = append(findings, f)
		}
	}
	return findings, nil
}

// Ensure JSONPCallbackCheck implements Check.
var _ Check = (*JSONPCallbackCheck)(nil)

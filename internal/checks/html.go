package checks

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/techmad220/RavenX/internal/model"
)

// parseForms extracts all forms from an HTML body.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because:
// 1. It correctly handles malformed HTML common on the web
// 2. Nested form fields are found regardless of markup depth
// 3. The crawler's link parser uses the same library, one parsing model
func parseForms(body []byte) []model.Form {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var forms []model.Form
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "form" {
			form := model.Form{
				Action: getAttr(n, "action"),
				Method: strings.ToUpper(strings.TrimSpace(getAttr(n, "method"))),
			}
			if form.Method == "" {
				form.Method = "GET"
			}
			collectInputs(n, &form)
			forms = append(forms, form)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return forms
}

// collectInputs gathers input, select, and textarea fields under a form
// node.
func collectInputs(n *html.Node, form *model.Form) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "input", "select", "textarea":
			in := model.FormInput{
				Type:  getAttr(n, "type"),
				Name:  getAttr(n, "name"),
				Value: getAttr(n, "value"),
			}
			if in.Type == "" {
				in.Type = n.Data
				if n.Data == "input" {
					in.Type = "text"
				}
			}
			if in.Name != "" {
				form.Inputs = append(form.Inputs, in)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectInputs(c, form)
	}
}

// countInsecureResources counts img, script, and link elements whose
// source URL uses plain http://.
func countInsecureResources(body []byte) int {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return 0
	}

	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			var src string
			switch n.Data {
			case "img", "script":
				src = getAttr(n, "src")
			case "link":
				src = getAttr(n, "href")
			}
			if strings.HasPrefix(src, "http://") {
				count++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return count
}

// imageSources extracts img src attributes from an HTML body, in
// document order, deduplicated.
func imageSources(body []byte) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var sources []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			if src := getAttr(n, "src"); src != "" {
				if _, dup := seen[src]; !dup {
					seen[src] = struct{}{}
					sources = append(sources, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sources
}

// getAttr returns the value of an attribute on an element node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

package checks

import (
	"testing"
)

// TestParseForms tests form extraction from HTML bodies.
func TestParseForms(t *testing.T) {
	t.Parallel()

	t.Run("extracts forms with inputs", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body>
			<form action="/login" method="post">
				<input type="text" name="user">
				<input type="password" name="pass">
				<input type="hidden" name="csrf_token" value="abc">
			</form>
		</body></html>`)

		forms := parseForms(body)
		if len(forms) != 1 {
			t.Fatalf("expected 1 form, got %d", len(forms))
		}
		form := forms[0]
		if form.Action != "/login" {
			t.Errorf("expected action /login, got %s", form.Action)
		}
		if form.Method != "POST" {
			t.Errorf("expected method POST, got %s", form.Method)
		}
		if len(form.Inputs) != 3 {
			t.Errorf("expected 3 inputs, got %d", len(form.Inputs))
		}
	})

	t.Run("defaults method to GET", func(t *testing.T) {
		t.Parallel()

		forms := parseForms([]byte(`<form action="/search"><input name="q"></form>`))
		if len(forms) != 1 {
			t.Fatalf("expected 1 form, got %d", len(forms))
		}
		if forms[0].Method != "GET" {
			t.Errorf("expected GET, got %s", forms[0].Method)
		}
	})

	t.Run("collects select and textarea", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<form method="POST">
			<select name="country"><option>a</option></select>
			<textarea name="comment"></textarea>
			<input type="submit">
		</form>`)

		forms := parseForms(body)
		if len(forms) != 1 {
			t.Fatalf("expected 1 form, got %d", len(forms))
		}
		// The unnamed submit input is skipped.
		if len(forms[0].Inputs) != 2 {
			t.Fatalf("expected 2 named inputs, got %d", len(forms[0].Inputs))
		}
		if forms[0].Inputs[0].Type != "select" {
			t.Errorf("expected select type, got %s", forms[0].Inputs[0].Type)
		}
		if forms[0].Inputs[1].Type != "textarea" {
			t.Errorf("expected textarea type, got %s", forms[0].Inputs[1].Type)
		}
	})

	t.Run("finds nested fields in malformed markup", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<form method="post"><div><table><tr><td>
			<input name="deep"></td></tr></table></div>`)

		forms := parseForms(body)
		if len(forms) != 1 {
			t.Fatalf("expected 1 form, got %d", len(forms))
		}
		if len(forms[0].Inputs) != 1 || forms[0].Inputs[0].Name != "deep" {
			t.Errorf("expected to find nested input, got %+v", forms[0].Inputs)
		}
	})

	t.Run("no forms on plain page", func(t *testing.T) {
		t.Parallel()

		if forms := parseForms([]byte(`<html><body><p>hello</p></body></html>`)); len(forms) != 0 {
			t.Errorf("expected no forms, got %d", len(forms))
		}
	})
}

// TestCountInsecureResources tests the mixed-content resource counter.
func TestCountInsecureResources(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><head>
		<script src="http://cdn.example.com/a.js"></script>
		<script src="https://cdn.example.com/b.js"></script>
		<link rel="stylesheet" href="http://cdn.example.com/c.css">
	</head><body>
		<img src="http://img.example.com/d.png">
		<img src="/relative/e.png">
	</body></html>`)

	if got := countInsecureResources(body); got != 3 {
		t.Errorf("expected 3 insecure resources, got %d", got)
	}
}

// TestImageSources tests img extraction for the EXIF check.
func TestImageSources(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><body>
		<img src="/a.jpg">
		<img src="/b.png">
		<img src="/a.jpg">
		<img>
	</body></html>`)

	sources := imageSources(body)
	if len(sources) != 2 {
		t.Fatalf("expected 2 deduplicated sources, got %d: %v", len(sources), sources)
	}
	if sources[0] != "/a.jpg" || sources[1] != "/b.png" {
		t.Errorf("expected document order [/a.jpg /b.png], got %v", sources)
	}
}

package webassets

import (
	"strings"
	"testing"
)

func TestEmbeddedStatusPage(t *testing.T) {
	b, err := Files.ReadFile("index.html")
	if err != nil {
		t.Fatalf("embedded asset missing index.html: %v", err)
	}
	page := string(b)
	for _, want := range []string{"/api/v1/status/current", "/api/v1/proclamations"} {
		if !strings.Contains(page, want) {
			t.Errorf("status page does not reference %q", want)
		}
	}
}

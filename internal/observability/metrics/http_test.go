package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/v1/documents", "/v1/documents"},
		{"/v1/documents/analyze-bulk", "/v1/documents/analyze-bulk"},
		{"/v1/documents/estimate-cost", "/v1/documents/estimate-cost"},
		{"/v1/documents/doc-123", "/v1/documents/{document_id}"},
		{"/v1/documents/doc-123/analysis", "/v1/documents/{document_id}/analysis"},
		{"/v1/documents/doc-123/events", "/v1/documents/{document_id}/events"},
		{"/v1/documents/doc-123/analyze", "/v1/documents/{document_id}/analyze"},
		{"/v1/admin/costs/summary", "/v1/admin/costs/summary"},
	}

	for _, tc := range cases {
		if got := normalizePath(tc.in); got != tc.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

package data

import "testing"

func TestImageRef(t *testing.T) {
	tests := []struct {
		name       string
		ref        ImageRef
		wantInline bool
		wantKey    string
		wantBlob   bool
	}{
		{"inline png", "data:image/png;base64,iVBORw0KGgo=", true, "", false},
		{"blob page", "blob:serie_1:chap_1:0", false, "serie_1:chap_1:0", true},
		{"blob cover", BlobRef("cover:serie_1"), false, "cover:serie_1", true},
		{"empty blob key", "blob:", false, "", false},
		{"empty", "", false, "", false},
		{"remote url", "https://example.com/a.jpg", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.IsInline(); got != tt.wantInline {
				t.Errorf("IsInline() = %v, want %v", got, tt.wantInline)
			}
			key, ok := tt.ref.BlobKey()
			if key != tt.wantKey || ok != tt.wantBlob {
				t.Errorf("BlobKey() = (%q, %v), want (%q, %v)", key, ok, tt.wantKey, tt.wantBlob)
			}
		})
	}
}

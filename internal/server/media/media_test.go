package media

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Kind
	}{
		{"jpg", "sunset.jpg", KindImage},
		{"jpeg upper case", "SUNSET.JPEG", KindImage},
		{"png", "a.png", KindImage},
		{"gif", "a.gif", KindImage},
		{"webp mixed case", "a.WebP", KindImage},
		{"mp4", "clip.mp4", KindVideo},
		{"webm", "clip.webm", KindVideo},
		{"mov", "clip.MOV", KindVideo},
		{"quicktime", "clip.quicktime", KindVideo},
		{"text file", "notes.txt", KindUnknown},
		{"no extension", "README", KindUnknown},
		{"empty", "", KindUnknown},
		{"trailing dot", "photo.", KindUnknown},
		{"only last extension counts", "photo.jpg.exe", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.input); got != tt.expected {
				t.Errorf("Classify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestVisibilityString(t *testing.T) {
	if Visible.String() != "visible" {
		t.Errorf("expected 'visible', got %s", Visible.String())
	}
	if Hidden.String() != "hidden" {
		t.Errorf("expected 'hidden', got %s", Hidden.String())
	}
}

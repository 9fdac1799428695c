package domain

import "testing"

func TestDetectEntryType(t *testing.T) {
	tests := []struct {
		name string
		want EntryType
	}{
		{"photo.jpg", EntryTypeImage},
		{"photo.JPEG", EntryTypeImage},
		{"img.png", EntryTypeImage},
		{"anim.gif", EntryTypeImage},
		{"pic.webp", EntryTypeImage},
		{"report.pdf", EntryTypePDF},
		{"Report.PDF", EntryTypePDF},
		{"letter.doc", EntryTypeDocument},
		{"letter.docx", EntryTypeDocument},
		{"notes.txt", EntryTypeDocument},
		{"table.xlsx", EntryTypeDocument},
		{"slides.pptx", EntryTypeDocument},
		{"archive.zip", EntryTypeOther},
		{"noextension", EntryTypeOther},
		{"trailingdot.", EntryTypeOther},
		{".hidden", EntryTypeOther},
	}

	for _, tt := range tests {
		if got := DetectEntryType(tt.name); got != tt.want {
			t.Errorf("DetectEntryType(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestJoinPath(t *testing.T) {
	if got := JoinPath("", "Vacation"); got != "Vacation" {
		t.Errorf("root join: got %q", got)
	}
	if got := JoinPath("Vacation", "2026"); got != "Vacation/2026" {
		t.Errorf("nested join: got %q", got)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path   string
		parent string
		name   string
	}{
		{"Vacation", "", "Vacation"},
		{"Vacation/2026", "Vacation", "2026"},
		{"a/b/c.txt", "a/b", "c.txt"},
	}

	for _, tt := range tests {
		parent, name := SplitPath(tt.path)
		if parent != tt.parent || name != tt.name {
			t.Errorf("SplitPath(%q) = (%q, %q), want (%q, %q)", tt.path, parent, name, tt.parent, tt.name)
		}
	}
}

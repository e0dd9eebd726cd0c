package service

import (
	"testing"

	"eswed/internal/domain/models"
)

func classifierFolders() []models.Node {
	return []models.Node{
		{ID: "sf-docs", Name: "Documents", Kind: models.NodeKindFolder, IsSystemFolder: true},
		{ID: "sf-assets", Name: "Assets", Kind: models.NodeKindFolder, IsSystemFolder: true},
		{ID: "sf-design", Name: "Design", Kind: models.NodeKindFolder, IsSystemFolder: true},
		{ID: "sf-print", Name: "Print", Kind: models.NodeKindFolder, IsSystemFolder: true},
	}
}

func TestClassifyUploadTarget(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		want     string // expected folder ID, "" = project root
	}{
		{
			name:     "important keyword beats everything",
			fileName: "Q1 Brief.pdf",
			mimeType: "application/pdf",
			want:     "sf-docs",
		},
		{
			name:     "moodboard image is still a document",
			fileName: "moodboard.png",
			mimeType: "image/png",
			want:     "sf-docs",
		},
		{
			name:     "pdf extension routes to documents",
			fileName: "quarterly-report.pdf",
			want:     "sf-docs",
		},
		{
			name:     "invoice keyword routes to documents",
			fileName: "invoice_march.xlsx",
			want:     "sf-docs",
		},
		{
			name:     "word mime type routes to documents",
			fileName: "notes",
			mimeType: "application/msword",
			want:     "sf-docs",
		},
		{
			name:     "png routes to assets",
			fileName: "hero-banner.png",
			want:     "sf-assets",
		},
		{
			name:     "logo keyword beats design extension",
			fileName: "logo.ai",
			want:     "sf-assets",
		},
		{
			name:     "image mime prefix routes to assets",
			fileName: "scan",
			mimeType: "image/webp",
			want:     "sf-assets",
		},
		{
			name:     "illustrator file routes to design",
			fileName: "brandmark.ai",
			mimeType: "application/postscript",
			want:     "sf-design",
		},
		{
			name:     "figma keyword routes to design",
			fileName: "homepage figma export.zip",
			want:     "sf-design",
		},
		{
			name:     "indd extension routes to design before print",
			fileName: "flyer_print.indd",
			want:     "sf-design",
		},
		{
			name:     "cmyk keyword routes to print",
			fileName: "cmyk-proofs.eps",
			want:     "sf-print",
		},
		{
			name:     "unclassifiable lands at project root",
			fileName: "mystery.xyz",
			mimeType: "application/octet-stream",
			want:     "",
		},
	}

	folders := classifierFolders()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyUploadTarget(folders, tt.fileName, tt.mimeType)
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("ClassifyUploadTarget(%q) = %q, want root", tt.fileName, *got)
			case tt.want != "" && got == nil:
				t.Errorf("ClassifyUploadTarget(%q) = root, want %q", tt.fileName, tt.want)
			case tt.want != "" && got != nil && *got != tt.want:
				t.Errorf("ClassifyUploadTarget(%q) = %q, want %q", tt.fileName, *got, tt.want)
			}
		})
	}
}

func TestClassifyUploadTarget_NoSystemFolders(t *testing.T) {
	if got := ClassifyUploadTarget(nil, "brief.pdf", "application/pdf"); got != nil {
		t.Errorf("with no system folders expected root, got %q", *got)
	}
}

func TestClassifyUploadTarget_FolderAliases(t *testing.T) {
	folders := []models.Node{
		{ID: "sf-docs", Name: "docs", Kind: models.NodeKindFolder, IsSystemFolder: true},
		{ID: "sf-design", Name: "Design Files", Kind: models.NodeKindFolder, IsSystemFolder: true},
	}

	if got := ClassifyUploadTarget(folders, "contract.pdf", ""); got == nil || *got != "sf-docs" {
		t.Errorf("alias 'docs' not resolved, got %v", got)
	}
	if got := ClassifyUploadTarget(folders, "mockup.psd", ""); got == nil || *got != "sf-design" {
		t.Errorf("alias 'Design Files' not resolved, got %v", got)
	}
}

func TestClassifyUploadTarget_MissingTargetFolderFallsThrough(t *testing.T) {
	// Project without an Assets folder: an image falls through the asset
	// rule and, matching nothing else, lands at root.
	folders := []models.Node{
		{ID: "sf-docs", Name: "Documents", Kind: models.NodeKindFolder, IsSystemFolder: true},
	}
	if got := ClassifyUploadTarget(folders, "hero.png", "image/png"); got != nil {
		t.Errorf("expected root when Assets folder is absent, got %q", *got)
	}
}

package service

import (
	"strings"

	"eswed/internal/domain/models"
)

// Auto-sort keyword and extension tables. Rules are evaluated in a fixed
// priority order: important-document override, Documents, Assets, Design,
// Print. First match wins.
var (
	importantDocKeywords = []string{"brief", "inspiration", "moodboard", "mood board", "concept", "requirement", "scope"}

	documentKeywords   = []string{"proposal", "brief", "inspiration", "contract", "invoice", "agreement", "scope", "doc", "reference", "guide"}
	documentExtensions = []string{"doc", "docx", "txt", "pdf"}
	documentMimeTypes  = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
	}

	assetKeywords   = []string{"logo", "asset", "image", "photo"}
	assetExtensions = []string{"jpg", "jpeg", "png", "gif", "svg"}

	designKeywords   = []string{"design", "figma", "sketch", "prototype"}
	designExtensions = []string{"ai", "psd", "xd", "fig", "sketch", "indd", "aep"}

	printKeywords   = []string{"print", "cmyk"}
	printExtensions = []string{"indd", "eps"}
)

// ClassifyUploadTarget picks the system folder a new upload belongs in, or
// nil for the project root. It works over an already-loaded snapshot of the
// project's system folders so it never touches the store; upload callers
// catch lookup failures upstream and pass an empty slice, which degrades to
// root rather than blocking the upload.
func ClassifyUploadTarget(systemFolders []models.Node, fileName, mimeType string) *string {
	if len(systemFolders) == 0 {
		return nil
	}

	documents := resolveSystemFolder(systemFolders, "documents", "docs")
	assets := resolveSystemFolder(systemFolders, "assets")
	design := resolveSystemFolder(systemFolders, "design files", "design")
	print := resolveSystemFolder(systemFolders, "print")

	name := strings.ToLower(fileName)
	ext := fileExtension(name)
	mime := strings.ToLower(mimeType)

	// Important documents beat every other rule, including the generic
	// Documents heuristics below.
	if documents != nil && containsAny(name, importantDocKeywords) {
		return &documents.ID
	}

	if documents != nil &&
		(containsAny(name, documentKeywords) ||
			matchesExtension(ext, documentExtensions) ||
			matchesMime(mime, documentMimeTypes)) {
		return &documents.ID
	}

	if assets != nil &&
		(matchesExtension(ext, assetExtensions) ||
			containsAny(name, assetKeywords) ||
			strings.HasPrefix(mime, "image/")) {
		return &assets.ID
	}

	if design != nil &&
		(matchesExtension(ext, designExtensions) ||
			containsAny(name, designKeywords)) {
		return &design.ID
	}

	if print != nil &&
		(containsAny(name, printKeywords) ||
			matchesExtension(ext, printExtensions)) {
		return &print.ID
	}

	return nil
}

// resolveSystemFolder finds a system folder by any of its name aliases,
// case-insensitively.
func resolveSystemFolder(folders []models.Node, aliases ...string) *models.Node {
	for i := range folders {
		name := strings.ToLower(folders[i].Name)
		for _, alias := range aliases {
			if name == alias {
				return &folders[i]
			}
		}
	}
	return nil
}

// fileExtension returns the substring after the last '.' of an
// already-lowered name, or "" when absent.
func fileExtension(lowerName string) string {
	idx := strings.LastIndexByte(lowerName, '.')
	if idx < 0 || idx == len(lowerName)-1 {
		return ""
	}
	return lowerName[idx+1:]
}

func matchesExtension(ext string, candidates []string) bool {
	if ext == "" {
		return false
	}
	for _, c := range candidates {
		if ext == c {
			return true
		}
	}
	return false
}

func matchesMime(mime string, candidates []string) bool {
	if mime == "" {
		return false
	}
	for _, c := range candidates {
		if mime == c {
			return true
		}
	}
	return false
}

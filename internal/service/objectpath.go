package service

import (
	"fmt"
	"strings"
	"time"
)

// priorityKeywords route a file into the priority_docs segment of its
// storage key so operational tooling can find project-critical documents
// without a metadata lookup.
var priorityKeywords = []string{"brief", "inspiration", "moodboard", "proposal", "contract"}

// GenerateObjectPath derives the storage key for a file's content:
//
//	{ownerID}/{projectID}[/{parentID}][/priority_docs]/{unixMillis}_{normalizedName}
//
// The millisecond timestamp keeps re-uploads of a same-named file from
// overwriting each other; the trade-off is that old objects are orphaned on
// re-upload and must be reaped out of band. Callers pass the clock so the
// function stays deterministic for a fixed instant.
func GenerateObjectPath(ownerID, projectID, fileName string, parentID *string, now time.Time) string {
	name := normalizeFileName(fileName)

	var b strings.Builder
	b.WriteString(ownerID)
	b.WriteByte('/')
	b.WriteString(projectID)
	if parentID != nil && *parentID != "" {
		b.WriteByte('/')
		b.WriteString(*parentID)
	}
	if containsAny(name, priorityKeywords) {
		b.WriteString("/priority_docs")
	}
	fmt.Fprintf(&b, "/%d_%s", now.UnixMilli(), name)
	return b.String()
}

// normalizeFileName lower-cases the name and replaces every character
// outside [a-z0-9._-] with an underscore.
func normalizeFileName(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"eswed/internal/domain/models"
	"eswed/internal/domain/services"
)

// stubSearchService records the filters the handler built from the query
// string.
type stubSearchService struct {
	gotFilters *services.SearchFilters
}

func (s *stubSearchService) Search(ctx context.Context, userID, projectID string, filters *services.SearchFilters) ([]models.Node, error) {
	s.gotFilters = filters
	return []models.Node{}, nil
}

func searchRequest(t *testing.T, rawQuery string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/api/projects/p1/search?"+rawQuery, nil)
	r.SetPathValue("id", "p1")
	return r
}

func TestSearch_SystemFolderDefault(t *testing.T) {
	tests := []struct {
		name        string
		rawQuery    string
		wantInclude bool
	}{
		{"absent param keeps system folders", "q=contract", true},
		{"explicit false excludes", "q=contract&include_system=false", false},
		{"explicit true includes", "q=contract&include_system=true", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearchService{}
			h := NewSearchHandler(stub, discardLogger())

			rec := httptest.NewRecorder()
			h.Search(rec, searchRequest(t, tt.rawQuery))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if stub.gotFilters == nil {
				t.Fatal("search service was not called")
			}
			if stub.gotFilters.IncludeSystemFolders != tt.wantInclude {
				t.Errorf("IncludeSystemFolders = %v, want %v",
					stub.gotFilters.IncludeSystemFolders, tt.wantInclude)
			}
		})
	}
}

func TestSearch_RejectsUnknownKind(t *testing.T) {
	stub := &stubSearchService{}
	h := NewSearchHandler(stub, discardLogger())

	rec := httptest.NewRecorder()
	h.Search(rec, searchRequest(t, "kind=directory"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if stub.gotFilters != nil {
		t.Error("search service called despite invalid kind")
	}
}

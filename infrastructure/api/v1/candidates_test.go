package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuboulder-se-research/em-assist/application/service"
	"github.com/cuboulder-se-research/em-assist/domain/extraction"
	v1 "github.com/cuboulder-se-research/em-assist/infrastructure/api/v1"
)

type fakeLister struct {
	resp   service.ListResponse
	cached map[string]service.ListResponse
	last   service.ListRequest
	calls  int
}

func (f *fakeLister) List(_ context.Context, req service.ListRequest) service.ListResponse {
	f.calls++
	f.last = req
	return f.resp
}

func (f *fakeLister) Cached(filePath string) service.ListResponse {
	if resp, ok := f.cached[filePath]; ok {
		return resp
	}
	return service.NewErrorResponse("No candidates cached for " + filePath)
}

func serve(t *testing.T, lister v1.Lister, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := v1.NewCandidatesRouter(lister, nil).Routes()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) service.ListResponse {
	t.Helper()
	var resp service.ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestCandidatesRouter_List(t *testing.T) {
	lister := &fakeLister{resp: service.NewListResponse([]extraction.Candidate{
		extraction.NewCandidate("bar", 120, 240, 12, 15, extraction.KindAsIs),
	})}

	w := serve(t, lister, http.MethodPost, "/", `{"filePath":"/src/a.go","line":12}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if lister.last.FilePath != "/src/a.go" || lister.last.LineOrDefault() != 12 {
		t.Errorf("request = %+v", lister.last)
	}

	resp := decode(t, w)
	if resp.Error != nil {
		t.Fatalf("unexpected error %q", *resp.Error)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].FunctionName != "bar" || resp.Candidates[0].Type != "AS_IS" {
		t.Errorf("candidates = %+v", resp.Candidates)
	}
}

func TestCandidatesRouter_ListWithoutLine(t *testing.T) {
	lister := &fakeLister{resp: service.NewListResponse(nil)}

	w := serve(t, lister, http.MethodPost, "/", `{"filePath":"/src/a.go"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if lister.last.Line != nil {
		t.Errorf("Line = %v, want nil", *lister.last.Line)
	}
	if lister.last.LineOrDefault() != service.DefaultLine {
		t.Errorf("LineOrDefault() = %d", lister.last.LineOrDefault())
	}
}

func TestCandidatesRouter_ErrorPayloadIsOK(t *testing.T) {
	lister := &fakeLister{resp: service.NewErrorResponse("No function found at location")}

	w := serve(t, lister, http.MethodPost, "/", `{"filePath":"/src/a.go","line":1}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := strings.TrimSpace(w.Body.String())
	want := `{"candidates":[],"error":"No function found at location"}`
	if body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestCandidatesRouter_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{filePath:`},
		{"wrong type", `{"filePath":"/a.go","line":"twelve"}`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeLister{}
			w := serve(t, lister, http.MethodPost, "/", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if lister.calls != 0 {
				t.Error("lister should not be called")
			}
			resp := decode(t, w)
			if resp.Error == nil || !strings.HasPrefix(*resp.Error, "Invalid request body") {
				t.Errorf("error = %v", resp.Error)
			}
			if resp.Candidates == nil || len(resp.Candidates) != 0 {
				t.Errorf("candidates = %v, want empty list", resp.Candidates)
			}
		})
	}
}

func TestCandidatesRouter_Cached(t *testing.T) {
	hit := service.NewListResponse([]extraction.Candidate{
		extraction.NewCandidate("bar", 0, 10, 1, 1, extraction.KindAdjusted),
	})
	lister := &fakeLister{cached: map[string]service.ListResponse{"/src/a.go": hit}}

	w := serve(t, lister, http.MethodGet, "/?filePath=/src/a.go", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp := decode(t, w); resp.Error != nil || len(resp.Candidates) != 1 {
		t.Errorf("cached hit = %+v", resp)
	}

	w = serve(t, lister, http.MethodGet, "/?filePath=/src/b.go", "")
	resp := decode(t, w)
	if resp.Error == nil || *resp.Error != "No candidates cached for /src/b.go" {
		t.Errorf("cached miss error = %v", resp.Error)
	}
}

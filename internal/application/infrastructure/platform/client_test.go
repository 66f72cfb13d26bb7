package platform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sharemeal/console/internal/application/domain"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(Config{BaseURL: srv.URL}), srv
}

func TestListPersonalApplications(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/applications/personal" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "20" {
			t.Errorf("query = %v", q)
		}
		io.WriteString(w, `{"applications":[{"id":"a1","type":"BENEFICIARY","status":"PENDING","createdAt":1735689600000}],"totalApplications":5}`)
	})
	defer srv.Close()

	list, err := client.ListPersonalApplications(context.Background(), "tok", 2, 20)
	if err != nil {
		t.Fatalf("ListPersonalApplications: %v", err)
	}
	if len(list.Items) != 1 || list.TotalCount != 5 {
		t.Errorf("list = %+v", list)
	}
}

func TestListSubmittedApplicationsForwardsFilters(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("countryCode") != "KR" || q.Get("filterType") != "MERCHANT" {
			t.Errorf("filters missing: %v", q)
		}
		io.WriteString(w, `{"applications":[],"totalApplications":0}`)
	})
	defer srv.Close()

	if _, err := client.ListSubmittedApplications(context.Background(), "tok", 0, 10, "KR", "MERCHANT"); err != nil {
		t.Fatalf("ListSubmittedApplications: %v", err)
	}
}

func TestStructuredErrorFromUpstream(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"code":"FORBIDDEN","message":"Not allowed."}`)
	})
	defer srv.Close()

	_, err := client.GetApplicationDetail(context.Background(), "tok", "a1")
	se, ok := domain.AsStructured(err)
	if !ok {
		t.Fatalf("error = %v, want StructuredError", err)
	}
	if se.Code != "FORBIDDEN" || se.Message != "Not allowed." {
		t.Errorf("structured = %+v", se)
	}
}

func TestNonStructuredErrorBodyFallsBackToStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream exploded")
	})
	defer srv.Close()

	_, err := client.GetApplicationDetail(context.Background(), "tok", "a1")
	se, ok := domain.AsStructured(err)
	if !ok {
		t.Fatalf("error = %v, want StructuredError fallback", err)
	}
	if se.Code != "HTTP_502" || se.Message != "upstream exploded" {
		t.Errorf("fallback = %+v", se)
	}
}

func TestMalformedDetailIsDecodeError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"a1","type":"VENDOR","status":"PENDING","createdAt":1}`)
	})
	defer srv.Close()

	_, err := client.GetApplicationDetail(context.Background(), "tok", "a1")
	if !domain.IsDecodeError(err) {
		t.Errorf("error = %v, want DecodeError", err)
	}
}

func TestSubmitApplicationMultipart(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/applications/merchant" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}

		metadata := r.FormValue("metadata")
		if metadata == "" {
			t.Error("metadata field missing")
		}

		file, header, err := r.FormFile("LICENSE")
		if err != nil {
			t.Fatalf("license part missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "license.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "license-bytes" {
			t.Errorf("content = %q", content)
		}

		if _, _, err := r.FormFile("IDENTIFICATION"); err != nil {
			t.Errorf("identification part missing: %v", err)
		}

		w.WriteHeader(http.StatusCreated)
	})
	defer srv.Close()

	sub := &domain.Submission{
		Kind: domain.TypeMerchant,
		Metadata: domain.MerchantMetadata{
			AppliedCountry: "KR",
			PersonalInfo:   domain.PersonalInfo{Name: "Jane Roe", Address: "1 Main St"},
			Name:           "Corner Shop",
			Addresses:      []string{"2 Market St"},
		},
		Files: map[domain.FileType]domain.FileRef{
			domain.FileIdentification: {Name: "id.pdf", ContentType: "application/pdf", Content: []byte("id-bytes")},
			domain.FileLicense:        {Name: "license.pdf", ContentType: "application/pdf", Content: []byte("license-bytes")},
		},
	}

	if err := client.SubmitApplication(context.Background(), "tok", sub); err != nil {
		t.Fatalf("SubmitApplication: %v", err)
	}
}

func TestApproveApplicationReturnsMessage(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/applications/a1/approve" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"message":"Application approved by admin."}`)
	})
	defer srv.Close()

	msg, err := client.ApproveApplication(context.Background(), "tok", "a1")
	if err != nil {
		t.Fatalf("ApproveApplication: %v", err)
	}
	if msg != "Application approved by admin." {
		t.Errorf("message = %q", msg)
	}
}

func TestListSupportedCountriesWithoutCache(t *testing.T) {
	calls := 0
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `[{"countryCode":"KR","countryName":"Korea","address":"0xabc"}]`)
	})
	defer srv.Close()

	countries, err := client.ListSupportedCountries(context.Background())
	if err != nil {
		t.Fatalf("ListSupportedCountries: %v", err)
	}
	if len(countries) != 1 || countries[0].CountryCode != "KR" {
		t.Errorf("countries = %+v", countries)
	}

	// 未配置缓存时每次调用都回源
	if _, err := client.ListSupportedCountries(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
}

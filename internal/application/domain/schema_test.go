package domain

import (
	"testing"
	"time"
)

func TestFormatEpoch(t *testing.T) {
	ms := int64(1735689600000)
	got := FormatEpoch(ms)

	parsed, err := time.ParseInLocation(createdAtLayout, got, time.Local)
	if err != nil {
		t.Fatalf("output %q does not match layout: %v", got, err)
	}
	want := time.UnixMilli(ms).Local().Truncate(time.Minute)
	// 布局不含年份以外的秒与时区，逐字段比对到分钟
	if parsed.Month() != want.Month() || parsed.Day() != want.Day() ||
		parsed.Hour() != want.Hour() || parsed.Minute() != want.Minute() {
		t.Errorf("FormatEpoch(%d) = %q, want fields of %v", ms, got, want)
	}
}

func TestDecodeApplicationList(t *testing.T) {
	data := []byte(`{
		"applications": [
			{"id":"a1","type":"BENEFICIARY","userId":"u1","status":"PENDING",
			 "applicantName":"Jane","appliedCountry":"KR","createdAt":1735689600000},
			{"id":"a2","type":"MERCHANT","userId":"u2","status":"APPROVED",
			 "applicantName":"Shop","appliedCountry":"JP","createdAt":1735689700000}
		],
		"totalApplications": 42
	}`)

	list, err := DecodeApplicationList(data)
	if err != nil {
		t.Fatalf("DecodeApplicationList: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(list.Items))
	}
	if list.TotalCount != 42 {
		t.Errorf("total = %d, want 42", list.TotalCount)
	}
	if list.Items[0].Status != StatusPending || list.Items[1].Type != TypeMerchant {
		t.Errorf("decoded rows wrong: %+v", list.Items)
	}
	if list.Items[0].CreatedAt == "" {
		t.Error("createdAt not converted to display string")
	}
}

func TestDecodeApplicationListEmptyIsValid(t *testing.T) {
	list, err := DecodeApplicationList([]byte(`{"applications":[],"totalApplications":0}`))
	if err != nil {
		t.Fatalf("empty list rejected: %v", err)
	}
	if len(list.Items) != 0 || list.TotalCount != 0 {
		t.Errorf("list = %+v, want empty", list)
	}
}

func TestDecodeApplicationListFailures(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"applications":`},
		{"unknown type", `{"applications":[{"id":"a1","type":"VENDOR","status":"PENDING","createdAt":1}]}`},
		{"unknown status", `{"applications":[{"id":"a1","type":"MERCHANT","status":"WAITING","createdAt":1}]}`},
		{"missing id", `{"applications":[{"type":"MERCHANT","status":"PENDING","createdAt":1}]}`},
		{"missing createdAt", `{"applications":[{"id":"a1","type":"MERCHANT","status":"PENDING"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeApplicationList([]byte(tt.data))
			if err == nil {
				t.Fatal("decode succeeded, want error")
			}
			if !IsDecodeError(err) {
				t.Errorf("error type = %T, want DecodeError", err)
			}
		})
	}
}

func TestDecodeApplicationDetailOrganization(t *testing.T) {
	data := []byte(`{
		"id":"a1","type":"ORGANIZATION","userId":"u1","status":"PENDING",
		"applicantName":"Helping Hands","appliedCountry":"KR","createdAt":1735689600000,
		"files":[{"name":"id.pdf","url":"https://files/id.pdf","fileType":"IDENTIFICATION"}],
		"personalAddress":{"id":"ad1","address":"1 Main St","applicationId":"a1","type":"PERSONAL"},
		"organization":{
			"id":"o1","name":"Helping Hands",
			"addresses":[{"id":"ad2","address":"3 Charity Rd","applicationId":"a1","type":"BUSINESS"}],
			"members":[{"id":"m1","userId":"u1","email":"owner@example.com","name":"Jane"}]
		},
		"merchant":null
	}`)

	detail, err := DecodeApplicationDetail(data)
	if err != nil {
		t.Fatalf("DecodeApplicationDetail: %v", err)
	}
	if detail.Merchant != nil {
		t.Error("merchant should stay nil")
	}
	if detail.Organization == nil {
		t.Fatal("organization missing")
	}
	if len(detail.Organization.Members) != 1 || detail.Organization.Members[0].Email != "owner@example.com" {
		t.Errorf("members = %+v", detail.Organization.Members)
	}
	if detail.PersonalAddress == nil || detail.PersonalAddress.Type != AddressPersonal {
		t.Errorf("personal address = %+v", detail.PersonalAddress)
	}
	if len(detail.Files) != 1 || detail.Files[0].FileType != FileIdentification {
		t.Errorf("files = %+v", detail.Files)
	}
}

func TestDecodeApplicationDetailBeneficiaryHasNoSubEntities(t *testing.T) {
	data := []byte(`{
		"id":"a1","type":"BENEFICIARY","status":"APPROVED","createdAt":1735689600000,
		"files":[]
	}`)

	detail, err := DecodeApplicationDetail(data)
	if err != nil {
		t.Fatalf("DecodeApplicationDetail: %v", err)
	}
	if detail.Organization != nil || detail.Merchant != nil || detail.PersonalAddress != nil {
		t.Errorf("sub entities should be nil: %+v", detail)
	}
}

func TestDecodeApplicationDetailFailures(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad file type", `{"id":"a1","type":"MERCHANT","status":"PENDING","createdAt":1,
			"files":[{"name":"x","url":"u","fileType":"SELFIE"}]}`},
		{"bad address type", `{"id":"a1","type":"MERCHANT","status":"PENDING","createdAt":1,
			"personalAddress":{"id":"ad1","address":"x","type":"WORK"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeApplicationDetail([]byte(tt.data)); !IsDecodeError(err) {
				t.Errorf("error = %v, want DecodeError", err)
			}
		})
	}
}

func TestDecodeCountries(t *testing.T) {
	data := []byte(`[
		{"countryCode":"KR","countryName":"Korea","address":"0xabc"},
		{"countryCode":"JP","countryName":"Japan","address":null}
	]`)

	countries, err := DecodeCountries(data)
	if err != nil {
		t.Fatalf("DecodeCountries: %v", err)
	}
	if len(countries) != 2 {
		t.Fatalf("countries = %d, want 2", len(countries))
	}
	if countries[0].Address == nil || *countries[0].Address != "0xabc" {
		t.Errorf("address = %v", countries[0].Address)
	}
	if countries[1].Address != nil {
		t.Error("null address should decode to nil")
	}

	if _, err := DecodeCountries([]byte(`[{"countryName":"Nowhere"}]`)); !IsDecodeError(err) {
		t.Errorf("missing countryCode: error = %v, want DecodeError", err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structured", &StructuredError{Code: "FORBIDDEN", Message: "Not allowed."}, "Not allowed."},
		{"structured empty message", &StructuredError{Code: "X"}, "Something went wrong. Please try again later."},
		{"decode", NewDecodeError("application", "bad"), "Received an unexpected response. Please try again later."},
		{"plain", NewValidationError("nope"), "Something went wrong. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

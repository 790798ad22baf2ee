package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boxoffice-tracker/internal/config"
)

const sampleBody = `{
	"boxOfficeResult": {
		"boxofficeType": "일별 박스오피스",
		"showRange": "20240601~20240601",
		"dailyBoxOfficeList": [
			{
				"rnum": "1",
				"rank": "1",
				"rankInten": "0",
				"rankOldAndNew": "OLD",
				"movieCd": "20236146",
				"movieNm": "파묘",
				"openDt": "2024-02-22",
				"audiCnt": "12345",
				"audiAcc": "11,234,567",
				"scrnCnt": "1500",
				"showCnt": "5000"
			}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *KobisClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewKobisClient(&config.Config{KobisAPIKey: "test-key", KobisBaseURL: srv.URL})
}

func TestFetchDailyBoxOffice(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(sampleBody))
	})

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	resp, err := client.FetchDailyBoxOffice(context.Background(), date)
	if err != nil {
		t.Fatalf("FetchDailyBoxOffice failed: %v", err)
	}

	if gotQuery != "key=test-key&targetDt=20240601" {
		t.Fatalf("unexpected query string: %s", gotQuery)
	}

	rows := resp.BoxOfficeResult.DailyBoxOfficeList
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	row := rows[0]
	if row.MovieCd != "20236146" || row.MovieNm != "파묘" || row.Rank != "1" || row.AudiAcc != "11,234,567" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchDailyBoxOffice(context.Background(), time.Now())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestFetchTooManyRequestsIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchDailyBoxOffice(context.Background(), time.Now())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestFetchClientErrorIsPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchDailyBoxOffice(context.Background(), time.Now())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestFetchMalformedPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"boxOfficeResult": `},
		{"fault info", `{"faultInfo": {"message": "잘못된 키값입니다.", "errorCode": "320010"}}`},
		{"missing result", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})

			_, err := client.FetchDailyBoxOffice(context.Background(), time.Now())
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestReportingDate(t *testing.T) {
	resp := &DailyBoxOfficeResponse{BoxOfficeResult: &BoxOfficeResult{ShowRange: "20240601~20240601"}}
	date, err := resp.ReportingDate()
	if err != nil {
		t.Fatalf("ReportingDate failed: %v", err)
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !date.Equal(want) {
		t.Fatalf("expected %v, got %v", want, date)
	}

	resp = &DailyBoxOfficeResponse{BoxOfficeResult: &BoxOfficeResult{ShowRange: "junk"}}
	if _, err := resp.ReportingDate(); err == nil {
		t.Fatal("expected error for malformed showRange")
	}

	resp = &DailyBoxOfficeResponse{BoxOfficeResult: &BoxOfficeResult{}}
	if _, err := resp.ReportingDate(); err == nil {
		t.Fatal("expected error for missing showRange")
	}
}

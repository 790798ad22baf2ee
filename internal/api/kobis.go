package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"boxoffice-tracker/internal/config"

	"github.com/valyala/fasthttp"
)

// Provider failure taxonomy. Unavailable is transient and worth retrying;
// malformed responses and client errors are permanent.
var (
	ErrProviderUnavailable = errors.New("box office provider unavailable")
	ErrMalformedResponse   = errors.New("box office provider returned malformed response")
)

const targetDateLayout = "20060102"

type KobisClient struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
}

func NewKobisClient(cfg *config.Config) *KobisClient {
	return &KobisClient{
		apiKey:  cfg.KobisAPIKey,
		baseURL: cfg.KobisBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// FetchDailyBoxOffice performs one GET for the given date. No retries here;
// the retry policy lives with the caller.
func (c *KobisClient) FetchDailyBoxOffice(ctx context.Context, date time.Time) (*DailyBoxOfficeResponse, error) {
	url := fmt.Sprintf("%s?key=%s&targetDt=%s", c.baseURL, c.apiKey, date.Format(targetDateLayout))

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
	}

	status := resp.StatusCode()
	switch {
	case status >= 500 || status == fasthttp.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
	case status != fasthttp.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrMalformedResponse, status)
	}

	var result DailyBoxOfficeResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if result.FaultInfo != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrMalformedResponse, result.FaultInfo.Message, result.FaultInfo.ErrorCode)
	}
	if result.BoxOfficeResult == nil {
		return nil, fmt.Errorf("%w: missing boxOfficeResult", ErrMalformedResponse)
	}
	return &result, nil
}

type DailyBoxOfficeResponse struct {
	BoxOfficeResult *BoxOfficeResult `json:"boxOfficeResult"`
	FaultInfo       *FaultInfo       `json:"faultInfo"`
}

type FaultInfo struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

type BoxOfficeResult struct {
	BoxofficeType      string           `json:"boxofficeType"`
	ShowRange          string           `json:"showRange"`
	DailyBoxOfficeList []BoxOfficeEntry `json:"dailyBoxOfficeList"`
}

// BoxOfficeEntry is one ranked row as the provider sends it: everything is a
// string, including counts.
type BoxOfficeEntry struct {
	Rnum          string `json:"rnum"`
	Rank          string `json:"rank"`
	RankInten     string `json:"rankInten"`
	RankOldAndNew string `json:"rankOldAndNew"`
	MovieCd       string `json:"movieCd"`
	MovieNm       string `json:"movieNm"`
	OpenDt        string `json:"openDt"`
	AudiCnt       string `json:"audiCnt"`
	AudiAcc       string `json:"audiAcc"`
	ScrnCnt       string `json:"scrnCnt"`
	ShowCnt       string `json:"showCnt"`
}

// ReportingDate parses the date the payload claims to cover, taken from the
// start of showRange ("20240101~20240101").
func (r *DailyBoxOfficeResponse) ReportingDate() (time.Time, error) {
	if r.BoxOfficeResult == nil || r.BoxOfficeResult.ShowRange == "" {
		return time.Time{}, fmt.Errorf("%w: missing showRange", ErrMalformedResponse)
	}
	raw := r.BoxOfficeResult.ShowRange
	if idx := len(targetDateLayout); len(raw) >= idx {
		raw = raw[:idx]
	}
	date, err := time.Parse(targetDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad showRange %q", ErrMalformedResponse, r.BoxOfficeResult.ShowRange)
	}
	return date, nil
}

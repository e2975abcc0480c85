package tourism

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jamijombole/travelgenie/internal/api/intent"
	"github.com/jamijombole/travelgenie/internal/types"
)

const (
	requestTimeout = 10 * time.Second
	mobileOS       = "ETC"
	mobileApp      = "TravelGenie"
	successCode    = "0000"
)

// SearchParams describes one keyword search. AreaCode takes precedence over
// Region when both are set; Region is resolved through the area code table.
type SearchParams struct {
	Region    string
	Keyword   string
	AreaCode  string
	NumOfRows int
	PageNo    int
}

// SearchResult is the normalized outcome of a keyword search. An empty Items
// slice is a legitimate result, not an error.
type SearchResult struct {
	TotalCount int
	PageNo     int
	NumOfRows  int
	Items      []types.TourismItem
}

var _ SearchClient = (*HTTPSearchClient)(nil)

// SearchClient is the venue search boundary. The orchestrator owns any
// retry/relaxation policy; implementations make exactly one upstream call.
type SearchClient interface {
	SearchKeyword(ctx context.Context, params SearchParams) (*SearchResult, error)
}

// HTTPSearchClient talks to the Korea Tourism Organization keyword search
// endpoint.
type HTTPSearchClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	serviceKey string
}

func NewHTTPSearchClient(baseURL, serviceKey string, logger *slog.Logger) *HTTPSearchClient {
	return &HTTPSearchClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		serviceKey: serviceKey,
	}
}

// jsonEnvelope mirrors the provider's nested response shape. Items is kept
// raw because the provider returns "" when empty, a bare object for a single
// match, and an array otherwise.
type jsonEnvelope struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			TotalCount int             `json:"totalCount"`
			NumOfRows  int             `json:"numOfRows"`
			PageNo     int             `json:"pageNo"`
			Items      json.RawMessage `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

func (c *HTTPSearchClient) SearchKeyword(ctx context.Context, params SearchParams) (*SearchResult, error) {
	ctx, span := otel.Tracer("TourismClient").Start(ctx, "SearchKeyword")
	defer span.End()

	l := c.logger.With(slog.String("method", "SearchKeyword"))

	areaCode := params.AreaCode
	if areaCode == "" && params.Region != "" {
		if code, ok := intent.ResolveAreaCode(params.Region); ok {
			areaCode = code
		}
	}

	keyword := params.Keyword
	if keyword == "" {
		// The searchKeyword endpoint rejects empty keywords.
		keyword = intent.DefaultKeyword
	}
	numOfRows := params.NumOfRows
	if numOfRows <= 0 {
		numOfRows = 10
	}
	pageNo := params.PageNo
	if pageNo <= 0 {
		pageNo = 1
	}

	requestURL, err := c.buildRequestURL(keyword, areaCode, numOfRows, pageNo)
	if err != nil {
		return nil, fmt.Errorf("failed to build tourism request URL: %w", err)
	}

	span.SetAttributes(
		attribute.String("tourism.keyword", keyword),
		attribute.String("tourism.area_code", areaCode),
		attribute.Int("tourism.num_of_rows", numOfRows),
	)
	l.DebugContext(ctx, "Calling tourism search API",
		slog.String("url", maskServiceKey(requestURL)),
		slog.String("keyword", keyword),
		slog.String("area_code", areaCode),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tourism request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upstream request failed")
		return nil, &UpstreamError{
			Kind:    KindTransport,
			Message: fmt.Sprintf("요청 실패: %v", err),
			cause:   err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, &UpstreamError{
			Kind:       KindTransport,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("응답 본문 읽기 실패: %v", err),
			cause:      err,
		}
	}
	trimmed := strings.TrimSpace(string(body))

	// The provider reports some failures as XML regardless of the requested
	// _type=json, so sniff before parsing.
	if strings.HasPrefix(trimmed, "<") {
		code, msg := parseXMLError(trimmed)
		span.SetStatus(codes.Error, "Upstream returned XML error envelope")
		return nil, &UpstreamError{
			Kind:       KindProtocol,
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    msg,
		}
	}

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "Upstream returned non-200 status")
		return nil, c.non200Error(resp.StatusCode, trimmed)
	}

	var envelope jsonEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upstream body is not valid JSON")
		return nil, &UpstreamError{
			Kind:       KindProtocol,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("응답 파싱 실패: %s", truncate(trimmed, 500)),
			cause:      err,
		}
	}

	header := envelope.Response.Header
	if header.ResultCode != successCode {
		span.SetStatus(codes.Error, "Upstream reported non-success result code")
		return nil, &UpstreamError{
			Kind:       KindProtocol,
			StatusCode: resp.StatusCode,
			Code:       header.ResultCode,
			Message:    header.ResultMsg,
		}
	}

	items, err := decodeItems(envelope.Response.Body.Items)
	if err != nil {
		return nil, &UpstreamError{
			Kind:       KindProtocol,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("아이템 목록 파싱 실패: %v", err),
			cause:      err,
		}
	}

	result := &SearchResult{
		TotalCount: envelope.Response.Body.TotalCount,
		PageNo:     pageNo,
		NumOfRows:  numOfRows,
		Items:      items,
	}
	l.InfoContext(ctx, "Tourism search completed",
		slog.Int("total_count", result.TotalCount),
		slog.Int("items", len(result.Items)),
	)
	span.SetAttributes(attribute.Int("tourism.result_count", len(result.Items)))
	span.SetStatus(codes.Ok, "Search completed")
	return result, nil
}

// buildRequestURL assembles the signed query string. Keys issued by
// data.go.kr are already percent-encoded; the key is appended verbatim in
// that case because a second encoding pass would invalidate it.
func (c *HTTPSearchClient) buildRequestURL(keyword, areaCode string, numOfRows, pageNo int) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	serviceKey := c.serviceKey
	if !strings.Contains(serviceKey, "%") {
		serviceKey = url.QueryEscape(serviceKey)
	}

	values := url.Values{}
	values.Set("numOfRows", fmt.Sprintf("%d", numOfRows))
	values.Set("pageNo", fmt.Sprintf("%d", pageNo))
	values.Set("MobileOS", mobileOS)
	values.Set("MobileApp", mobileApp)
	values.Set("_type", "json")
	values.Set("keyword", keyword)
	if areaCode != "" {
		values.Set("areaCode", areaCode)
	}

	base.RawQuery = "serviceKey=" + serviceKey + "&" + values.Encode()
	return base.String(), nil
}

func (c *HTTPSearchClient) non200Error(status int, body string) *UpstreamError {
	if strings.Contains(body, "Unexpected errors") {
		return &UpstreamError{
			Kind:       KindTransport,
			StatusCode: status,
			Message:    "공공데이터 API 서버 오류: 'Unexpected errors'",
			Unexpected: true,
		}
	}

	var envelope jsonEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err == nil {
		header := envelope.Response.Header
		if header.ResultCode != "" || header.ResultMsg != "" {
			return &UpstreamError{
				Kind:       KindTransport,
				StatusCode: status,
				Code:       header.ResultCode,
				Message:    header.ResultMsg,
			}
		}
	}
	return &UpstreamError{
		Kind:       KindTransport,
		StatusCode: status,
		Message:    truncate(body, 300),
	}
}

// decodeItems normalizes the three shapes the provider uses for the item
// list: absent/empty, a single bare object, or an array.
func decodeItems(raw json.RawMessage) ([]types.TourismItem, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == `""` || trimmed == "{}" {
		return []types.TourismItem{}, nil
	}

	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	inner := strings.TrimSpace(string(wrapper.Item))
	if inner == "" || inner == "null" {
		return []types.TourismItem{}, nil
	}

	var items []types.TourismItem
	if err := json.Unmarshal(wrapper.Item, &items); err == nil {
		return items, nil
	}

	var single types.TourismItem
	if err := json.Unmarshal(wrapper.Item, &single); err != nil {
		return nil, err
	}
	return []types.TourismItem{single}, nil
}

// parseXMLError walks the provider's undocumented XML error envelope and
// collects whatever code/message elements it finds.
func parseXMLError(body string) (code, msg string) {
	decoder := xml.NewDecoder(strings.NewReader(body))
	var current string
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch current {
			case "resultCode", "returnReasonCode":
				code = text
			case "resultMsg", "errMsg", "returnAuthMsg", "message":
				if msg != "" {
					msg += " "
				}
				msg += text
			}
		}
	}
	if msg == "" {
		msg = "알 수 없는 XML 오류 응답"
	}
	return code, msg
}

// maskServiceKey hides the credential in logged URLs.
func maskServiceKey(rawURL string) string {
	idx := strings.Index(rawURL, "serviceKey=")
	if idx < 0 {
		return rawURL
	}
	end := strings.Index(rawURL[idx:], "&")
	if end < 0 {
		return rawURL[:idx] + "serviceKey=***"
	}
	return rawURL[:idx] + "serviceKey=***" + rawURL[idx+end:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

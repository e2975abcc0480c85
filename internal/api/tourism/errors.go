package tourism

import "fmt"

// ErrorKind classifies upstream failures so the orchestrator can map them to
// user-facing status codes without string matching.
type ErrorKind int

const (
	// KindTransport covers network failures, timeouts and non-2xx statuses.
	KindTransport ErrorKind = iota
	// KindProtocol covers 2xx responses that are not usable: XML error
	// envelopes, malformed JSON, or a non-success result code.
	KindProtocol
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// UpstreamError is returned for any failure talking to the tourism API.
// Unexpected marks the provider's generic "Unexpected errors" body, which
// almost always means a credential or provider-side problem and deserves a
// remediation hint instead of the raw message.
type UpstreamError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	Unexpected bool
	cause      error
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tourism API %s error (code %s, status %d): %s", e.Kind, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tourism API %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.cause }

// RemediationHint returns guidance for the provider's opaque failure mode,
// mirroring the checklist the data.go.kr operators publish.
func (e *UpstreamError) RemediationHint() string {
	if !e.Unexpected {
		return ""
	}
	return "공공데이터포털(data.go.kr)에서 API 키가 활성화되어 있는지, " +
		"키가 '한국관광공사_국문 관광정보 서비스'에 연결되어 있는지, " +
		"서비스 신청이 승인 상태인지 확인한 뒤 잠시 후 다시 시도해주세요."
}

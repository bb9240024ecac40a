package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/suar-net/suar-api/internal/model"
	"github.com/suar-net/suar-api/internal/repository"
)

const (
	maxResponseBodySize   = 10 * 1024 * 1024 // 10 MB
	defaultRequestTimeout = 30 * time.Second
	defaultCollection     = "Default"
)

// Only these methods carry a request body.
var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

var errInvalidRequest = errors.New("failed to create http request")

type outboundRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// ContentType is applied when the caller did not set one.
	ContentType string
}

// isPrivateIP checks if a given IP address is private.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsLinkLocalUnicast()
}

// denyPrivateAddress runs after DNS resolution, so it sees the address actually dialed.
func denyPrivateAddress(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return ErrPrivateTarget
	}
	return nil
}

// requestPayload turns the JSON "body" field into the bytes to send. A JSON
// string is sent verbatim; any other JSON value is sent as JSON.
func requestPayload(raw json.RawMessage) (payload []byte, isJSON bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			if s == "" {
				return nil, false
			}
			return []byte(s), false
		}
	}
	return trimmed, true
}

func newOutboundRequest(dto *model.DTORequest) *outboundRequest {
	request := &outboundRequest{
		Method:  strings.ToUpper(strings.TrimSpace(dto.Method)),
		URL:     dto.URL,
		Headers: dto.Headers,
	}
	if request.Headers == nil {
		request.Headers = map[string]string{}
	}

	if bodyMethods[request.Method] {
		payload, isJSON := requestPayload(dto.Body)
		request.Body = payload
		if isJSON {
			request.ContentType = "application/json"
		}
	}
	return request
}

type responseSnapshot struct {
	status     int
	statusText string
	headers    map[string]string
	data       any
	size       int
	truncated  bool
}

func (r *responseSnapshot) toJSONMap() datatypes.JSONMap {
	m := datatypes.JSONMap{
		"status":     r.status,
		"statusText": r.statusText,
		"headers":    r.headers,
		"data":       r.data,
	}
	if r.truncated {
		m["truncated"] = true
	}
	return m
}

type ExecutorService struct {
	httpClient   *http.Client
	repo         repository.IHistoryRepository
	logger       *logrus.Logger
	timeout      time.Duration
	blockPrivate bool
}

type ExecutorOption func(*ExecutorService)

// WithTimeout overrides the 30 second outbound timeout.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(s *ExecutorService) {
		s.timeout = d
	}
}

// WithPrivateTargetsBlocked refuses to dial loopback, private and link-local addresses.
func WithPrivateTargetsBlocked(block bool) ExecutorOption {
	return func(s *ExecutorService) {
		s.blockPrivate = block
	}
}

// WithHTTPClient replaces the default client. The private target guard is not applied to it.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(s *ExecutorService) {
		s.httpClient = c
	}
}

func NewExecutorService(repo repository.IHistoryRepository, logger *logrus.Logger, opts ...ExecutorOption) *ExecutorService {
	s := &ExecutorService{
		repo:    repo,
		logger:  logger,
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.httpClient == nil {
		dialer := &net.Dialer{
			Timeout:   s.timeout,
			KeepAlive: 30 * time.Second,
		}
		if s.blockPrivate {
			dialer.Control = denyPrivateAddress
		}

		// Create a custom transport with optimized settings
		transport := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		s.httpClient = &http.Client{
			Transport: transport,
		}
	}
	return s
}

// Execute sends the request and records the attempt. Any received response,
// whatever its status, is a success. When no response arrives the attempt is
// still recorded with status 0 and a *TransportError is returned.
func (s *ExecutorService) Execute(ctx context.Context, dto *model.DTORequest) (*model.DTOResponse, error) {
	startTime := time.Now()
	outbound := newOutboundRequest(dto)

	// Only the timeout may abort the call; a disconnecting client must not
	// lose the history record either.
	ctx = context.WithoutCancel(ctx)

	snapshot, err := s.send(ctx, outbound)
	responseTime := time.Since(startTime).Milliseconds()
	record := newHistoryRecord(dto, outbound, responseTime)

	fields := logrus.Fields{
		"method":      outbound.Method,
		"url":         outbound.URL,
		"duration_ms": responseTime,
	}

	if err != nil {
		transportErr := &TransportError{
			Code:         transportErrorCode(err),
			ResponseTime: responseTime,
			Err:          err,
		}
		record.Response = datatypes.JSONMap{
			"error":  transportErr.Error(),
			"code":   transportErr.Code,
			"status": 0,
		}
		if saveErr := s.repo.Create(ctx, record); saveErr != nil {
			s.logger.WithFields(fields).WithError(saveErr).Error("Error saving failed request")
		}
		s.logger.WithFields(fields).WithField("code", transportErr.Code).WithError(err).Warn("Outbound request failed")
		return nil, transportErr
	}

	record.Status = snapshot.status
	record.Response = snapshot.toJSONMap()
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: failed to save request history: %v", ErrStore, err)
	}

	fields["status"] = snapshot.status
	fields["size"] = humanize.Bytes(uint64(snapshot.size))
	s.logger.WithFields(fields).Info("Outbound request completed")

	return &model.DTOResponse{
		Success:      true,
		ID:           record.ID,
		Response:     record.Response,
		ResponseTime: responseTime,
		Timestamp:    record.Timestamp,
	}, nil
}

func (s *ExecutorService) send(ctx context.Context, outbound *outboundRequest) (*responseSnapshot, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var bodyReader io.Reader
	if len(outbound.Body) > 0 {
		bodyReader = bytes.NewReader(outbound.Body)
	}

	httpRequest, err := http.NewRequestWithContext(reqCtx, outbound.Method, outbound.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	for key, value := range outbound.Headers {
		if strings.EqualFold(key, "Host") {
			httpRequest.Host = value
			continue
		}
		httpRequest.Header.Set(key, value)
	}
	if outbound.ContentType != "" && httpRequest.Header.Get("Content-Type") == "" {
		httpRequest.Header.Set("Content-Type", outbound.ContentType)
	}

	httpResponse, err := s.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	return readResponse(httpResponse)
}

func readResponse(resp *http.Response) (*responseSnapshot, error) {
	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	limitedReader := &io.LimitedReader{R: resp.Body, N: maxResponseBodySize + 1}
	bodyBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	snapshot := &responseSnapshot{
		status:     resp.StatusCode,
		statusText: statusText(resp),
		headers:    headers,
	}
	// Check if response was truncated
	if len(bodyBytes) > maxResponseBodySize {
		bodyBytes = bodyBytes[:maxResponseBodySize]
		snapshot.truncated = true
	}
	snapshot.size = len(bodyBytes)
	snapshot.data = decodeBody(bodyBytes)
	return snapshot, nil
}

// decodeBody returns parsed JSON when the body is JSON and the raw text otherwise.
func decodeBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return string(body)
	}
	if json.Valid(body) {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func transportErrorCode(err error) string {
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, ErrPrivateTarget):
		return CodeBlocked
	case errors.Is(err, errInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return CodeTimeout
	case errors.As(err, &dnsErr):
		return CodeNotFound
	case errors.Is(err, syscall.ECONNREFUSED):
		return CodeConnRefused
	case errors.Is(err, syscall.ECONNRESET):
		return CodeConnReset
	default:
		return CodeNetwork
	}
}

func newHistoryRecord(dto *model.DTORequest, outbound *outboundRequest, responseTime int64) *model.HistoryRecord {
	record := &model.HistoryRecord{
		Method:       outbound.Method,
		URL:          dto.URL,
		Headers:      datatypes.NewJSONType(outbound.Headers),
		ResponseTime: responseTime,
		Timestamp:    time.Now().UTC(),
		Collection:   dto.Collection,
		Name:         dto.Name,
		Description:  dto.Description,
		Tags:         datatypes.JSONSlice[string](dto.Tags),
	}
	if payload, _ := requestPayload(dto.Body); payload != nil {
		body := string(payload)
		record.Body = &body
	}
	if record.Collection == "" {
		record.Collection = defaultCollection
	}
	if record.Name == "" {
		record.Name = fmt.Sprintf("%s %s", outbound.Method, dto.URL)
	}
	if record.Tags == nil {
		record.Tags = datatypes.JSONSlice[string]{}
	}
	return record
}

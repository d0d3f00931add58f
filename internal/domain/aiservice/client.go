package aiservice

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"ai-image-gateway/internal/platform/errors"
	"ai-image-gateway/internal/platform/logging"
	"ai-image-gateway/internal/platform/observability"
)

const (
	// FieldName is the multipart field the AI service reads the image from.
	FieldName = "image"

	defaultContentType = "application/octet-stream"
	logTag             = "AIService"
)

// Options configures a Client.
type Options struct {
	URL string
	// Timeout of zero leaves the transport default in place.
	Timeout              time.Duration
	ForwardAuthorization bool
	Logger               *logging.Logger
}

// Client posts images to the AI service. It never retries.
type Client struct {
	http        *resty.Client
	url         string
	forwardAuth bool
	logger      *logging.Logger
}

// NewClient builds a client bound to opts.URL.
func NewClient(opts Options) *Client {
	httpClient := resty.New().
		SetRetryCount(0).
		SetLogger(restyLogger{logger: opts.Logger})
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	return &Client{
		http:        httpClient,
		url:         opts.URL,
		forwardAuth: opts.ForwardAuthorization,
		logger:      opts.Logger,
	}
}

// URL returns the configured endpoint.
func (c *Client) URL() string {
	return c.url
}

// Classify sends req as a single multipart POST and decodes the reply.
func (c *Client) Classify(ctx context.Context, req Request) (resp *Response, err error) {
	ctx, end := observability.StartSpan(ctx, "aiservice", "classify")
	defer func() { end(err) }()

	c.infof("Using AI service URL: %s", c.url)
	if u, parseErr := url.ParseRequestURI(c.url); parseErr != nil {
		c.warnf("AI service URL could not be parsed: %v", parseErr)
	} else {
		c.debugf("AI service URL parsed: scheme=%s host=%s path=%s", u.Scheme, u.Host, u.Path)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetMultipartField(FieldName, req.FileName, contentType, req.Body)
	if c.forwardAuth && req.Authorization != "" {
		r.SetHeader("Authorization", req.Authorization)
	}
	if req.RequestID != "" {
		r.SetHeader("X-Request-Id", req.RequestID)
	}

	c.infof("Sending request to AI service: file=%s content_type=%s", req.FileName, contentType)
	res, err := r.Post(c.url)
	if err != nil {
		c.errorf("AI service request failed: %v", err)
		observability.RecordMetric(ctx, "aiservice.status", 0, map[string]string{"outcome": "transport_error"})
		return nil, errors.Wrap(errors.KindUpstream, "aiservice.classify", "AI service request failed", err)
	}

	status := res.StatusCode()
	c.infof("AI service response status: %d", status)
	observability.RecordMetric(ctx, "aiservice.status", float64(status), map[string]string{
		"success": strconv.FormatBool(res.IsSuccess()),
	})

	if !res.IsSuccess() {
		c.errorf("AI service error response: status=%d body=%s", status, string(res.Body()))
		return nil, errors.New(errors.KindUpstream, "aiservice.classify",
			fmt.Sprintf("AI service returned status %d", status))
	}

	c.infof("AI service response body: %s", string(res.Body()))
	return decodeResponse(res.Body())
}

func decodeResponse(body []byte) (*Response, error) {
	var decoded *Response
	if err := sonic.ConfigStd.Unmarshal(body, &decoded); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "aiservice.decode", "AI service returned malformed JSON", err)
	}
	if decoded == nil {
		return nil, errors.New(errors.KindInternal, "aiservice.decode", "AI service returned an empty result")
	}
	return decoded, nil
}

func (c *Client) debugf(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.DebugTag(logTag, msg, args...)
	}
}

func (c *Client) infof(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.InfoTag(logTag, msg, args...)
	}
}

func (c *Client) warnf(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.WarnTag(logTag, msg, args...)
	}
}

func (c *Client) errorf(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.ErrorTag(logTag, msg, args...)
	}
}

// restyLogger routes resty's internal warnings into the gateway logger.
type restyLogger struct {
	logger *logging.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	if l.logger != nil {
		l.logger.ErrorTag(logTag, format, v...)
	}
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	if l.logger != nil {
		l.logger.WarnTag(logTag, format, v...)
	}
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	if l.logger != nil {
		l.logger.DebugTag(logTag, format, v...)
	}
}

package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"ai-image-gateway/internal/domain/eventbus"
	"ai-image-gateway/internal/domain/processing"
	"ai-image-gateway/internal/platform/config"
	"ai-image-gateway/internal/platform/errors"
	"ai-image-gateway/internal/platform/logging"
	httptransport "ai-image-gateway/internal/transport/http"
)

// Processor runs one upload through validation and classification.
type Processor interface {
	Process(ctx context.Context, upload processing.Upload) (*processing.Result, error)
}

// Service is the HTTP surface of the upload gateway.
type Service struct {
	config    *config.Config
	logger    *logging.Logger
	processor Processor
	stats     *eventbus.StatsCollector
}

// NewService 创建上传网关服务实例
// A nil stats collector reports zero counters.
func NewService(
	cfg *config.Config,
	logger *logging.Logger,
	processor Processor,
	stats *eventbus.StatsCollector,
) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindConfig, "process.new", "config is required")
	}
	if logger == nil {
		return nil, errors.New(errors.KindConfig, "process.new", "logger is required")
	}
	if processor == nil {
		return nil, errors.New(errors.KindConfig, "process.new", "processor is required")
	}

	return &Service{
		config:    cfg,
		logger:    logger,
		processor: processor,
		stats:     stats,
	}, nil
}

// Register 注册上传网关路由
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/process", s.handleGet)
	router.POST("/process", s.handlePost)

	s.logger.InfoTag("HTTP", "process routes registered")
	return nil
}

// handleGet 返回网关配置与上传计数
// @Summary Gateway status
// @Description Returns the configured AI service, the upload policy and upload counters
// @Tags Process
// @Produce json
// @Success 200 {object} httptransport.APIResponse{data=StatusData}
// @Router /process [get]
func (s *Service) handleGet(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, StatusData{
		AIServiceHost:     serviceHost(s.config.AIService.URL),
		FieldName:         s.config.Upload.FieldName,
		AllowedExtensions: s.config.Upload.AllowedExtensions,
		MaxFileSize:       s.config.Upload.MaxFileSize,
		VerifyContent:     s.config.Upload.VerifyContent,
		Stats:             s.stats.Snapshot(),
	}, "image gateway is running")
}

// handlePost 上传图片并转发给 AI 服务
// @Summary Classify an image
// @Description Validates the uploaded image and forwards it to the AI service
// @Tags Process
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string false "Bearer token passed through to the AI service"
// @Param image formData file true "Image file (.jpg .jpeg .png .gif .bmp, at most 10MB)"
// @Success 200 {object} processing.Result
// @Failure 400 {string} string "validation message"
// @Failure 500 {string} string "An error occurred while processing the image"
// @Failure 503 {string} string "AI service is temporarily unavailable"
// @Router /process [post]
func (s *Service) handlePost(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorTag("Gateway", "panic while processing upload: %v", r)
			httptransport.RespondText(c, http.StatusInternalServerError, MsgUnexpectedFailure)
		}
	}()

	if limit := s.config.Server.MaxRequestBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	upload := s.readUpload(c)
	result, err := s.processor.Process(c.Request.Context(), upload)
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// readUpload streams the multipart body up to the first file part named after
// the configured field. A missing part, a body that is not multipart or a body
// cut off by the request cap before the part starts yields Present unset.
//
// At most MaxFileSize+1 bytes of the part are read, so an oversized file is
// reported by its size and the rest of the body is left unread. The ordered
// checks in the processor then decide between the type and size messages.
func (s *Service) readUpload(c *gin.Context) processing.Upload {
	upload := processing.Upload{
		Authorization: c.GetHeader("Authorization"),
		RequestID:     httptransport.RequestID(c),
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		s.logger.DebugTag("Gateway", "request is not multipart: %v", err)
		return upload
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			if err != io.EOF {
				s.logger.DebugTag("Gateway", "multipart scan stopped: %v", err)
			}
			return upload
		}
		if part.FormName() != s.config.Upload.FieldName || part.FileName() == "" {
			continue
		}

		upload.Present = true
		upload.FileName = part.FileName()
		upload.ContentType = part.Header.Get("Content-Type")
		s.readPart(part, &upload)
		return upload
	}
}

// readPart fills Size and Body. A part cut off by the request cap counts as
// over the size limit. Any other read failure leaves the upload without a body.
func (s *Service) readPart(part *multipart.Part, upload *processing.Upload) {
	limit := s.config.Upload.MaxFileSize
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, limit+1))
	switch {
	case err == nil:
		upload.Size = n
	case isBodyTooLarge(err):
		s.logger.WarnTag("Gateway", "request cap reached after %d bytes of %s", n, upload.FileName)
		upload.Size = max(n, limit+1)
	default:
		s.logger.WarnTag("Gateway", "failed to read image part: %v", err)
		return
	}
	if upload.Size > 0 {
		upload.Body = bytes.NewReader(buf.Bytes())
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// serviceHost keeps only the host of the AI service URL for public status output.
func serviceHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// StatusFor maps a processing error onto the response status and body.
func StatusFor(err error) (int, string) {
	switch errors.KindOf(err) {
	case errors.KindInvalidInput:
		return http.StatusBadRequest, errors.MessageOf(err)
	case errors.KindUpstream:
		return http.StatusServiceUnavailable, MsgUpstreamUnavailable
	default:
		return http.StatusInternalServerError, MsgUnexpectedFailure
	}
}

func (s *Service) respondFailure(c *gin.Context, err error) {
	status, message := StatusFor(err)
	switch status {
	case http.StatusBadRequest:
		s.logger.WarnTag("Gateway", "upload rejected: %s", message)
	case http.StatusServiceUnavailable:
		s.logger.ErrorTag("Gateway", "AI service unavailable: %v", err)
	default:
		s.logger.ErrorTag("Gateway", "unexpected processing failure: %v", err)
	}
	httptransport.RespondText(c, status, message)
}

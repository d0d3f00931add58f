package image

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"ai-image-gateway/internal/platform/config"
	"ai-image-gateway/internal/platform/errors"
	"ai-image-gateway/internal/platform/logging"
)

// Validator applies the upload acceptance policy.
type Validator struct {
	policy config.UploadConfig
	logger *logging.Logger
}

// NewValidator constructs a validator for policy. logger may be nil.
func NewValidator(policy config.UploadConfig, logger *logging.Logger) *Validator {
	return &Validator{
		policy: policy,
		logger: logger,
	}
}

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"bmp":  {0x42, 0x4D},
}

// extensionFormats maps file extensions to the names image.DecodeConfig reports.
var extensionFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".bmp":  "bmp",
}

// Check runs presence, extension and size checks in that order and stops at the
// first failure.
func (v *Validator) Check(c Candidate) error {
	if !c.Present || c.Size <= 0 {
		return errors.New(errors.KindInvalidInput, "image.check", MsgNoFile)
	}

	if !v.extensionAllowed(c.FileName) {
		v.warn("rejected file type: file=%s", c.FileName)
		return errors.New(errors.KindInvalidInput, "image.check", MsgInvalidType)
	}

	if c.Size > v.policy.MaxFileSize {
		v.warn("rejected oversized file: file=%s size=%d max_size=%d", c.FileName, c.Size, v.policy.MaxFileSize)
		return errors.New(errors.KindInvalidInput, "image.check", MsgTooLarge)
	}

	return nil
}

// VerifyContent reports whether Inspect should run on accepted uploads.
func (v *Validator) VerifyContent() bool {
	return v.policy.VerifyContent
}

func (v *Validator) extensionAllowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, allowed := range v.policy.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Inspect decodes the image header and checks the decoded format and dimensions.
func (v *Validator) Inspect(fileName string, data []byte) (Inspection, error) {
	var result Inspection

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		declared := extensionFormats[strings.ToLower(filepath.Ext(fileName))]
		if declared != "" && !matchesSignature(data, declared) {
			v.warn("file signature mismatch: declared_format=%s actual_header=%x", declared, data[:min(len(data), 16)])
		}
		return result, errors.Wrap(errors.KindInvalidInput, "image.inspect", MsgInvalidType, err)
	}

	if !v.formatAllowed(format) {
		v.warn("decoded format not allowed: file=%s format=%s", fileName, format)
		return result, errors.New(errors.KindInvalidInput, "image.inspect", MsgInvalidType)
	}

	if (v.policy.MaxWidth > 0 && cfg.Width > v.policy.MaxWidth) ||
		(v.policy.MaxHeight > 0 && cfg.Height > v.policy.MaxHeight) {
		return result, errors.Wrap(errors.KindInvalidInput, "image.inspect", MsgTooLarge,
			fmt.Errorf("dimensions exceed limit: %dx%d (max %dx%d)", cfg.Width, cfg.Height, v.policy.MaxWidth, v.policy.MaxHeight))
	}

	pixels := int64(cfg.Width) * int64(cfg.Height)
	if v.policy.MaxPixels > 0 && pixels > v.policy.MaxPixels {
		return result, errors.Wrap(errors.KindInvalidInput, "image.inspect", MsgTooLarge,
			fmt.Errorf("pixel count exceeds limit: %d (max %d)", pixels, v.policy.MaxPixels))
	}

	result = Inspection{Format: format, Width: cfg.Width, Height: cfg.Height}
	if v.logger != nil {
		v.logger.Debug("image inspection success: format=%s width=%d height=%d size=%d",
			result.Format, result.Width, result.Height, len(data))
	}
	return result, nil
}

func (v *Validator) formatAllowed(format string) bool {
	for _, ext := range v.policy.AllowedExtensions {
		if extensionFormats[ext] == format {
			return true
		}
	}
	return false
}

func matchesSignature(data []byte, format string) bool {
	signature, ok := imageSignatures[format]
	if !ok {
		return true
	}
	return bytes.HasPrefix(data, signature)
}

func (v *Validator) warn(msg string, args ...interface{}) {
	if v.logger != nil {
		v.logger.WarnTag("Gateway", msg, args...)
	}
}

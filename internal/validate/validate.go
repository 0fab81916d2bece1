// Package validate holds the pure input validators used by node
// definitions: email addresses and uploaded file sets.
package validate

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	playground "github.com/go-playground/validator/v10"

	"github.com/necyberteam/qabot/pkg/domain"
)

// emailRetryDelay hints the host UI to highlight the input and re-show the
// prompt for a few seconds after a rejection.
const emailRetryDelay = 3 * time.Second

var validate = playground.New()

// Email checks a single email address. Empty and malformed input is
// rejected with a user-facing prompt.
func Email(text string) domain.Verdict {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.RejectAfter("Please enter your email address.", emailRetryDelay)
	}
	if err := validate.Var(trimmed, "email"); err != nil {
		return domain.RejectAfter("That doesn't look like a valid email address. Please enter it again.", emailRetryDelay)
	}
	return domain.Accept()
}

// File policy limits.
const (
	maxImageSize      = 10 << 20 // per image
	maxAttachmentSize = 25 << 20 // per general attachment
	maxBatchSize      = 50 << 20 // aggregate across one batch
)

var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

var imageMIMETypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

var attachmentExtensions = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"doc":  true,
	"docx": true,
	"txt":  true,
	"csv":  true,
	"zip":  true,
}

func extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Images validates a file set against the image-only policy: per-file 10 MB,
// PNG or JPEG by MIME type or extension. Every file is examined in a stable
// left-to-right scan and the first failure wins, so the same set always
// produces the same error message.
func Images(files []domain.File) domain.Verdict {
	verdict := domain.Accept()
	for _, f := range files {
		var failure string
		switch {
		case f.Size > maxImageSize:
			failure = fmt.Sprintf("%s is larger than 10 MB. Please upload a smaller image.", f.Name)
		case !imageMIMETypes[f.ContentType] && !imageExtensions[extension(f.Name)]:
			failure = fmt.Sprintf("%s is not a PNG or JPEG image.", f.Name)
		}
		if failure != "" && verdict.Accepted {
			verdict = domain.Reject(failure)
		}
	}
	return verdict
}

// Attachments validates a file set against the general attachment policy:
// per-file 25 MB, 50 MB aggregate, extension allow-list. Scan order and
// first-failure semantics match Images.
func Attachments(files []domain.File) domain.Verdict {
	verdict := domain.Accept()
	var total int64
	for _, f := range files {
		total += f.Size
		var failure string
		switch {
		case f.Size > maxAttachmentSize:
			failure = fmt.Sprintf("%s is larger than 25 MB. Please upload a smaller file.", f.Name)
		case !attachmentExtensions[extension(f.Name)]:
			failure = fmt.Sprintf("%s has an unsupported file type. Allowed: pdf, png, jpg, jpeg, gif, doc, docx, txt, csv, zip.", f.Name)
		case total > maxBatchSize:
			failure = "The selected files exceed 50 MB in total. Please remove some and try again."
		}
		if failure != "" && verdict.Accepted {
			verdict = domain.Reject(failure)
		}
	}
	return verdict
}

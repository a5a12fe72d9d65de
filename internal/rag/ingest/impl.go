package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

func isRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func getDocType(source string) commonModels.DocType {
	docPath := source
	if isRemote(source) {
		u, _ := url.Parse(source)
		docPath = u.Path
	}
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func docTypeFromContentType(contentType string) commonModels.DocType {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return commonModels.ERR
	}
	switch mediaType {
	case "application/pdf":
		return commonModels.PDF
	case "text/plain":
		return commonModels.TXT
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.oasis.opendocument.text", "application/rtf", "text/rtf":
		return commonModels.DOCX
	default:
		return commonModels.ERR
	}
}

// download stores the body in a temp file that keeps the source extension,
// so the extractors can pick their format from the name.
func (l *Loader) download(ctx context.Context, source string, log *logger_i.Logger) (string, commonModels.DocType, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", commonModels.ERR, fmt.Errorf("build request: %w", err)
	}
	log.Debug("Downloading document")
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", commonModels.ERR, fmt.Errorf("fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", commonModels.ERR, fmt.Errorf("fetch %s: unexpected status %s", source, resp.Status)
	}

	docType := getDocType(source)
	if docType == commonModels.ERR {
		docType = docTypeFromContentType(resp.Header.Get("Content-Type"))
	}

	f, err := os.CreateTemp("", "pdfrag-*"+extensionFor(docType))
	if err != nil {
		return "", commonModels.ERR, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", commonModels.ERR, fmt.Errorf("save %s: %w", source, err)
	}
	log.Debug("Document downloaded", "bytes", n, "path", f.Name())
	return f.Name(), docType, nil
}

func extensionFor(docType commonModels.DocType) string {
	switch docType {
	case commonModels.PDF:
		return ".pdf"
	case commonModels.TXT:
		return ".txt"
	default:
		return ""
	}
}

func (l *Loader) extractText(path string, contentType commonModels.DocType, log *logger_i.Logger) ([]rawPage, error) {
	switch contentType {
	case commonModels.PDF:
		return l.extractPDF(path, log)
	case commonModels.DOCX, commonModels.TXT:
		return extractDocxTxtRtf(path, log)
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

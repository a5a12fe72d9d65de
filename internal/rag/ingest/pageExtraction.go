package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func (l *Loader) extractPDF(path string, log *logger_i.Logger) (pages []rawPage, err error) {
	// the pdf reader panics on some malformed files instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	f, err := pdf.Open(path)
	if err != nil {
		log.Error("failed opening of pdf file", "error", err)
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			log.Debug("extractPDF", "page value is null", i)
			continue
		}

		content, err := protectExtract(page, l.extractTimeout)
		if err != nil {
			// Log warning but continue with other pages
			log.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}

		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// extractDocxTxtRtf reads a .odt, .docx, .rtf or plaintext file. These formats
// carry no page breaks, so the whole text is page 1.
func extractDocxTxtRtf(path string, log *logger_i.Logger) ([]rawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		log.Error("Error extracting content from doc", "error", err)
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	return []rawPage{
		{
			Number:  1,
			Content: text,
		},
	}, nil
}

func protectExtract(page pdf.Page, timeout time.Duration) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errors.New("page extraction timed out")
	}
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/akolanti/pdfrag/internal/adapter/utils"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

// Loader turns a local path or an http(s) URL into the ordered, non-empty
// pages of one document.
type Loader struct {
	httpClient     *http.Client
	extractTimeout time.Duration
	logger         *logger_i.Logger
}

func NewLoader(httpClient *http.Client) *Loader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Loader{
		httpClient:     httpClient,
		extractTimeout: config.PageExtractTimeout,
		logger:         logger_i.NewLogger("Document Loader"),
	}
}

func (l *Loader) Load(ctx context.Context, source string) (commonModels.Document, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return commonModels.Document{}, commonModels.LoadError("load", errors.New("source is empty"))
	}
	log := l.logger.With("source", source)
	if runId, ok := ctx.Value(config.RUN_ID_KEY).(string); ok {
		log = log.With(config.RUN_ID_KEY, runId)
	}

	path := source
	docType := getDocType(source)
	if isRemote(source) {
		downloaded, remoteType, err := l.download(ctx, source, log)
		if err != nil {
			return commonModels.Document{}, commonModels.LoadError("download", err)
		}
		defer func() {
			if err := os.Remove(downloaded); err != nil {
				log.Error("Error removing file", "error", err)
			}
		}()
		path = downloaded
		if docType == commonModels.ERR {
			docType = remoteType
		}
	} else if _, err := os.Stat(path); err != nil {
		return commonModels.Document{}, commonModels.LoadError("open", err)
	}

	log.Debug("Processing document", "type", docType)
	if docType == commonModels.ERR {
		return commonModels.Document{}, commonModels.LoadError("detect type", fmt.Errorf("unsupported document type: %s", source))
	}

	rawPages, err := l.extractText(path, docType, log)
	if err != nil {
		return commonModels.Document{}, commonModels.LoadError("extract", err)
	}

	pages := make([]commonModels.Page, 0, len(rawPages))
	for _, p := range rawPages {
		if strings.TrimSpace(p.Content) == "" {
			log.Debug("Skipping page without text", "page", p.Number)
			continue
		}
		pages = append(pages, commonModels.Page{Number: p.Number, Content: p.Content, Source: source})
	}
	if len(pages) == 0 {
		return commonModels.Document{}, commonModels.LoadError("extract", errors.New("document has no extractable text"))
	}

	log.Info("Document loaded", "pages", len(pages))
	return commonModels.Document{
		Id:          utils.GetNewUUID(),
		Source:      source,
		ContentType: docType,
		LoadedAt:    time.Now().UTC(),
		Pages:       pages,
	}, nil
}

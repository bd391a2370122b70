// Package publish pushes completed reports to Google Docs. Publishing runs
// after a job completes and can only add a document URL or a warning, never
// change the job's terminal status.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/helixir/research-report-service/internal/config"
)

// GoogleDocsPublisher creates a Google Doc per report. It implements the
// workflow.Publisher port.
type GoogleDocsPublisher struct {
	docs     *docs.Service
	drive    *drive.Service
	folderID string
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewGoogleDocsPublisher builds a publisher authenticated with a service
// account credentials file.
func NewGoogleDocsPublisher(ctx context.Context, cfg config.PublishConfig, logger zerolog.Logger) (*GoogleDocsPublisher, error) {
	opts := []option.ClientOption{
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(docs.DocumentsScope, drive.DriveFileScope),
	}

	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &GoogleDocsPublisher{
		docs:     docsSvc,
		drive:    driveSvc,
		folderID: cfg.FolderID,
		timeout:  cfg.Timeout,
		logger:   logger,
	}, nil
}

// newWithServices wires a publisher from prebuilt services. Used by tests.
func newWithServices(docsSvc *docs.Service, driveSvc *drive.Service, folderID string, timeout time.Duration, logger zerolog.Logger) *GoogleDocsPublisher {
	return &GoogleDocsPublisher{
		docs:     docsSvc,
		drive:    driveSvc,
		folderID: folderID,
		timeout:  timeout,
		logger:   logger,
	}
}

// Publish creates a document titled after the query, inserts the report
// text, optionally files it into the configured Drive folder, and returns
// the document URL.
func (p *GoogleDocsPublisher) Publish(ctx context.Context, markdown, title string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	doc, err := p.docs.Documents.Create(&docs.Document{
		Title: fmt.Sprintf("Research Report: %s", title),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	_, err = p.docs.Documents.BatchUpdate(doc.DocumentId, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{
			{
				InsertText: &docs.InsertTextRequest{
					Text:     markdown,
					Location: &docs.Location{Index: 1},
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert report text: %w", err)
	}

	if p.folderID != "" && p.drive != nil {
		_, err = p.drive.Files.Update(doc.DocumentId, nil).
			AddParents(p.folderID).
			Context(ctx).
			Do()
		if err != nil {
			// Filing is cosmetic; the document exists and is reachable.
			p.logger.Warn().Err(err).
				Str("document_id", doc.DocumentId).
				Str("folder_id", p.folderID).
				Msg("failed to move document into folder")
		}
	}

	url := fmt.Sprintf("https://docs.google.com/document/d/%s/edit", doc.DocumentId)
	p.logger.Info().Str("document_id", doc.DocumentId).Str("url", url).Msg("report published")
	return url, nil
}

package crawl

import (
	"context"
	"fmt"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	documentaipb "cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/signal-noise/workbench/internal/platform/gcp"
)

// DocumentAIFallback satisfies crawl.OCRFallback using GCP Document AI's
// generic OCR processor, for PDFs whose text layer extraction above came
// back empty (e.g. scanned papers).
type DocumentAIFallback struct {
	processorName string
}

func NewDocumentAIFallback(processorName string) *DocumentAIFallback {
	return &DocumentAIFallback{processorName: processorName}
}

func (f *DocumentAIFallback) ExtractText(ctx context.Context, pdfBytes []byte) (string, error) {
	if f.processorName == "" {
		return "", fmt.Errorf("document ai processor not configured")
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, gcp.ClientOptionsFromEnv()...)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: f.processorName,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.GetDocument().GetText()), nil
}

package pdfvalidation

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFLimits defines the validation limits for PDF uploads
type PDFLimits struct {
	MaxFileSizeMB    int    // Maximum file size in MB
	DocumentTypeName string // For error messages (e.g., "resume")
}

// ResumeLimits bounds job-application resume uploads.
var ResumeLimits = PDFLimits{
	MaxFileSizeMB:    5,
	DocumentTypeName: "resume",
}

// ValidationResult contains the result of PDF validation
type ValidationResult struct {
	Valid     bool
	PageCount int // best effort, 0 when the page tree could not be read
	FileSize  int64
	Error     string
}

// ValidatePDFFile validates a PDF upload against the given limits. The hard
// checks are size, extension, declared content type and the magic header; the
// page count is extracted as metadata when the file parses cleanly.
func ValidatePDFFile(file *multipart.FileHeader, limits PDFLimits) (*ValidationResult, error) {
	result := &ValidationResult{
		FileSize: file.Size,
	}

	// 1. Validate file size
	maxSize := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		result.Error = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return result, nil
	}

	// 2. Validate file extension
	filename := strings.ToLower(file.Filename)
	if !strings.HasSuffix(filename, ".pdf") {
		result.Error = "Only PDF files are supported"
		return result, nil
	}

	// 3. Validate declared content type when the client sent one
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != "application/pdf" {
		result.Error = fmt.Sprintf("Invalid content type %q for %s: expected application/pdf", ct, limits.DocumentTypeName)
		return result, nil
	}

	// 4. Open file and read content
	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer fileContent.Close()

	content, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// 5. Validate PDF header
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		result.Error = "Invalid PDF file: missing PDF header"
		return result, nil
	}

	// 6. Extract page count as metadata. Scanned or oddly-built PDFs may not
	// parse; that alone is not grounds for rejection.
	if pageCount, err := getPDFPageCount(content); err == nil {
		result.PageCount = pageCount
	}

	result.Valid = true
	return result, nil
}

// getPDFPageCount reads the number of pages from PDF content
func getPDFPageCount(content []byte) (int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}

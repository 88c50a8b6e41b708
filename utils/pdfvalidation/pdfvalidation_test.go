package pdfvalidation

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

// fileHeader builds a real multipart.FileHeader by round-tripping a form
// through the stdlib parser.
func fileHeader(t *testing.T, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	part.Write(body)
	w.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("failed to parse form: %v", err)
	}
	files := req.MultipartForm.File["file"]
	if len(files) != 1 {
		t.Fatalf("expected one file, got %d", len(files))
	}
	return files[0]
}

func TestValidatePDFFileAcceptsWellFormedUpload(t *testing.T) {
	body := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	result, err := ValidatePDFFile(fileHeader(t, "resume.pdf", "application/pdf", body), ResumeLimits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid, got error %q", result.Error)
	}
	if result.FileSize != int64(len(body)) {
		t.Fatalf("expected size %d, got %d", len(body), result.FileSize)
	}
}

func TestValidatePDFFileRejectsOversize(t *testing.T) {
	big := []byte("%PDF-1.4\n" + strings.Repeat("x", 6*1024*1024))
	result, err := ValidatePDFFile(fileHeader(t, "resume.pdf", "application/pdf", big), ResumeLimits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected oversize file to be rejected")
	}
	if !strings.Contains(result.Error, "5MB") {
		t.Fatalf("error should name the limit, got %q", result.Error)
	}
}

func TestValidatePDFFileRejectsWrongExtension(t *testing.T) {
	result, err := ValidatePDFFile(fileHeader(t, "resume.docx", "application/pdf", []byte("%PDF-1.4")), ResumeLimits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected non-.pdf filename to be rejected")
	}
}

func TestValidatePDFFileRejectsWrongContentType(t *testing.T) {
	result, err := ValidatePDFFile(fileHeader(t, "resume.pdf", "text/plain", []byte("%PDF-1.4")), ResumeLimits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected mismatched content type to be rejected")
	}
}

func TestValidatePDFFileRejectsMissingHeader(t *testing.T) {
	result, err := ValidatePDFFile(fileHeader(t, "resume.pdf", "application/pdf", []byte("plain text pretending")), ResumeLimits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected missing magic header to be rejected")
	}
	if !strings.Contains(result.Error, "PDF header") {
		t.Fatalf("unexpected error message %q", result.Error)
	}
}

func TestValidatePDFFileUppercaseExtension(t *testing.T) {
	result, err := ValidatePDFFile(fileHeader(t, "RESUME.PDF", "application/pdf", []byte("%PDF-1.4\n%%EOF")), ResumeLimits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("extension matching must be case-insensitive, got %q", result.Error)
	}
}

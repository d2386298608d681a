package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ════════════════════════════════════════════════════════════════════
// PDF Generation
// ════════════════════════════════════════════════════════════════════

func TestGeneratePDFHTMLFallback(t *testing.T) {
	cfg := DefaultPDFConfig()
	cfg.Engine = EngineNone
	cfg.OutputPath = filepath.Join(t.TempDir(), "report.pdf")

	const html = "<html><body>usdc-mainnet swap report</body></html>"
	if err := GeneratePDF(html, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// With no conversion engine the report lands as .html next to the
	// requested path.
	fallback := strings.TrimSuffix(cfg.OutputPath, ".pdf") + ".html"
	data, err := os.ReadFile(fallback)
	if err != nil {
		t.Fatalf("reading fallback output: %v", err)
	}
	if string(data) != html {
		t.Errorf("fallback content mismatch: %q", string(data))
	}
}

func TestGeneratePDFFallbackCreatesDirectory(t *testing.T) {
	cfg := DefaultPDFConfig()
	cfg.Engine = EngineNone
	cfg.OutputPath = filepath.Join(t.TempDir(), "nested", "out", "report.pdf")

	if err := GeneratePDF("<html></html>", cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fallback := strings.TrimSuffix(cfg.OutputPath, ".pdf") + ".html"
	if _, err := os.Stat(fallback); err != nil {
		t.Errorf("fallback file not created: %v", err)
	}
}

func TestGeneratePDFRequiresOutputPath(t *testing.T) {
	cfg := DefaultPDFConfig()
	if err := GeneratePDF("<html></html>", cfg); err == nil {
		t.Fatalf("expected error for missing output path")
	}
}

func TestGeneratePDFUnknownEngine(t *testing.T) {
	cfg := DefaultPDFConfig()
	cfg.Engine = PDFEngine("latex")
	cfg.OutputPath = filepath.Join(t.TempDir(), "report.pdf")

	if err := GeneratePDF("<html></html>", cfg); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}

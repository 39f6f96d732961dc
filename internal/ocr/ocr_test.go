package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/carepilot/docintel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractor_Native(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "native"})
	require.NoError(t, err)
	assert.IsType(t, &NativePDF{}, ext)
}

func TestNewExtractor_NativeDefault(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: ""})
	require.NoError(t, err)
	assert.IsType(t, &NativePDF{}, ext)
}

func TestNewExtractor_PdfToText(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "pdftotext", PdfToTextPath: "/usr/bin/pdftotext"})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, ext)
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "unknown"`)
}

func TestPdfToText_BinPath(t *testing.T) {
	p := NewPdfToText("")
	assert.Equal(t, "pdftotext", p.binPath)

	p = NewPdfToText("/custom/pdftotext")
	assert.Equal(t, "/custom/pdftotext", p.binPath)
}

func TestPdfToText_ExtractText_BinaryNotFound(t *testing.T) {
	p := NewPdfToText("/nonexistent/pdftotext")
	_, err := p.ExtractText(context.Background(), "/tmp/test.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPdfToText_ExtractText_Success(t *testing.T) {
	// Create a fake pdftotext script that echoes content
	tmpDir := t.TempDir()
	fakeBin := filepath.Join(tmpDir, "pdftotext")
	script := "#!/bin/sh\necho 'Member: Jane Roe  Claim: CLM-480'\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0755))

	p := NewPdfToText(fakeBin)
	text, err := p.ExtractText(context.Background(), "/tmp/dummy.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "Claim: CLM-480")
}

func TestNativePDF_PlainTextPassthrough(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "plan.txt")
	require.NoError(t, os.WriteFile(path, []byte("Gold PPO Plan. Deductible $1500."), 0644))

	n := NewNativePDF()
	text, err := n.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Gold PPO Plan. Deductible $1500.", text)
}

func TestNativePDF_FileNotFound(t *testing.T) {
	n := NewNativePDF()
	_, err := n.ExtractText(context.Background(), "/nonexistent/doc.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read /nonexistent/doc.pdf")
}

func TestNativePDF_InvalidPDF(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a real pdf"), 0644))

	n := NewNativePDF()
	_, err := n.ExtractText(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open pdf")
}

func TestIsPlainText(t *testing.T) {
	assert.True(t, isPlainText("/docs/benefits.txt"))
	assert.True(t, isPlainText("/docs/NOTES.MD"))
	assert.False(t, isPlainText("/docs/eob.pdf"))
	assert.False(t, isPlainText("/docs/noext"))
}

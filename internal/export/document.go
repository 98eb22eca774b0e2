package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/jung-kurt/gofpdf"
)

// DefaultPageFormat is the paper size used when none is configured.
const DefaultPageFormat = "A4"

const imageName = "invoice"

// PDFBuilder lays a rasterized invoice onto portrait pages. The image spans
// the page width and keeps its aspect ratio. Images taller than one page
// continue on following pages.
type PDFBuilder struct {
	PageFormat string
}

// NewPDFBuilder returns a builder for the given paper size.
func NewPDFBuilder(pageFormat string) PDFBuilder {
	if pageFormat == "" {
		pageFormat = DefaultPageFormat
	}
	return PDFBuilder{PageFormat: pageFormat}
}

// Build encodes img (PNG or JPEG) into a PDF document.
func (b PDFBuilder) Build(img []byte) ([]byte, error) {
	if len(img) == 0 {
		return nil, errors.New("export: empty image")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("export: decode image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, errors.New("export: image has no area")
	}
	imageType := "PNG"
	if format == "jpeg" {
		imageType = "JPG"
	}

	pageFormat := b.PageFormat
	if pageFormat == "" {
		pageFormat = DefaultPageFormat
	}
	pdf := gofpdf.New("P", "mm", pageFormat, "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(img))

	pageWidth, pageHeight := pdf.GetPageSize()
	imgHeight := float64(cfg.Height) * pageWidth / float64(cfg.Width)
	for page := 0; page < PageCount(imgHeight, pageHeight); page++ {
		pdf.AddPage()
		pdf.ImageOptions(imageName, 0, -float64(page)*pageHeight, pageWidth, imgHeight, false, opts, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("export: build pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// PageCount returns how many pages of pageHeight an image of imgHeight
// needs. Sub-millimetre overflow does not start a new page.
func PageCount(imgHeight, pageHeight float64) int {
	if pageHeight <= 0 || imgHeight <= pageHeight {
		return 1
	}
	return int(math.Ceil(imgHeight/pageHeight - 1e-3))
}

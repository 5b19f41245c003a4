// Package cvpdf renders CV records to A4 PDF documents.
package cvpdf

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"kinobot/internal/models"
)

const fontFamily = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

type Renderer struct {
	dir string
}

// NewRenderer writes files to dir, or to the system temp dir when dir is empty
func NewRenderer(dir string) *Renderer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Renderer{dir: dir}
}

// Render writes cv to a new PDF file and returns its path. The caller removes the file.
func (r *Renderer) Render(cv models.CV) (string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(fontFamily, "", regularFont)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", boldFont)
	if err := pdf.Error(); err != nil {
		return "", fmt.Errorf("failed to load font: %w", err)
	}
	pdf.SetTitle(cv.FullName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 22)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 12, cv.FullName, "", 1, "L", false, 0, "")

	if cv.Position != "" {
		pdf.SetFont(fontFamily, "", 13)
		pdf.SetTextColor(90, 98, 104)
		pdf.CellFormat(0, 8, cv.Position, "", 1, "L", false, 0, "")
	}

	pdf.SetDrawColor(13, 110, 253)
	pdf.SetLineWidth(0.6)
	y := pdf.GetY() + 2
	pdf.Line(20, y, 190, y)
	pdf.Ln(6)

	pdf.SetTextColor(33, 37, 41)
	for _, row := range [][2]string{
		{"Telefon", cv.Phone},
		{"Email", cv.Email},
		{"Tug'ilgan sana", cv.BirthDate},
	} {
		if row[1] == "" {
			continue
		}
		pdf.SetFont(fontFamily, "B", 11)
		pdf.CellFormat(40, 7, row[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 11)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}

	for _, sec := range [][2]string{
		{"Lavozim", cv.Position},
		{"Ish tajribasi", cv.Experience},
		{"Ko'nikmalar", cv.Skills},
	} {
		if sec[1] == "" {
			continue
		}
		pdf.Ln(5)
		pdf.SetFont(fontFamily, "B", 14)
		pdf.SetTextColor(13, 110, 253)
		pdf.CellFormat(0, 8, sec[0], "", 1, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 11)
		pdf.SetTextColor(33, 37, 41)
		pdf.MultiCell(0, 6, sec[1], "", "L", false)
	}

	path := filepath.Join(r.dir, FileName(cv.FullName))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write pdf: %w", err)
	}
	return path, nil
}

// FileName builds "<name>_<8 random hex>.pdf" from a display name
func FileName(fullName string) string {
	return fmt.Sprintf("%s_%s.pdf", sanitize(fullName), uuid.NewString()[:8])
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_':
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "cv"
	}
	return s
}

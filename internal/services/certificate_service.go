package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/example/foty/internal/models"
)

// GenerateMembershipCertificate renders the PDF membership certificate for a
// user and returns it as a byte slice.
func GenerateMembershipCertificate(user *models.User) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("FOTY Membership Certificate - %s", user.Name), true)
	pdf.SetAuthor("Friends of the Youth", true)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	pdf.Rect(5, 5, pageW-10, pageH-10, "D")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetY(25)
	pdf.CellFormat(0, 12, "Friends of the Youth (FOTY)", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 20)
	pdf.CellFormat(0, 12, "Certificate of Membership", "", 1, "C", false, 0, "")

	pdf.SetY(65)
	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 10, "This certificate is proudly presented to:", "", 1, "C", false, 0, "")

	pdf.SetY(82)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(0, 14, user.Name, "", 1, "C", false, 0, "")

	pdf.SetY(105)
	pdf.SetFont("Helvetica", "", 14)
	pdf.MultiCell(0, 8, "For their dedication and valued membership in the Friends of the Youth community.", "", "C", false)

	joinDate := user.CreatedAt.Format("January 2, 2006")
	details := [][2]string{
		{"Member ID", user.ID.String()},
		{"Member Since", joinDate},
		{"Email", user.Email},
		{"Phone", user.Phone},
	}

	pdf.SetY(130)
	pdf.SetX(30)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageW-60, 9, "Membership Details", "1", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, row := range details {
		pdf.SetX(30)
		pdf.CellFormat(50, 9, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(pageW-110, 9, row[1], "1", 1, "L", false, 0, "")
	}

	pdf.SetY(195)
	pdf.SetX(30)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(70, 7, "_________________________", "", 2, "L", false, 0, "")
	pdf.CellFormat(70, 7, "Signature (FOTY Director)", "", 0, "L", false, 0, "")

	pdf.SetY(195)
	pdf.SetX(130)
	pdf.CellFormat(60, 7, "_________________________", "", 2, "L", false, 0, "")
	pdf.CellFormat(60, 7, "Date", "", 0, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

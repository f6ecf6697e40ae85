package lib

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/gosimple/slug"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"github.com/yeqown/go-qrcode"
)

type ReceiptInput struct {
	Booking     *models.Booking
	Recipient   types.Person
	Item        *types.BookableItem
	Currency    string
	FrontendURL string
}

func ReceiptFilename(b *models.Booking) string {
	return fmt.Sprintf("booking-receipt-%s.pdf", b.ID.String())
}

func BookingURL(frontendURL string, b *models.Booking) string {
	return fmt.Sprintf("%s/bookings/%s", strings.TrimSuffix(frontendURL, "/"), b.ID.String())
}

// PDFReceiptRenderer renders booking receipts. The QR code links back to the booking page.
type PDFReceiptRenderer struct {
	TempDir string
}

func NewPDFReceiptRenderer() *PDFReceiptRenderer {
	return &PDFReceiptRenderer{TempDir: os.Getenv("TEMP_DIR")}
}

func (r *PDFReceiptRenderer) Render(in ReceiptInput) ([]byte, error) {
	b := in.Booking
	title := "Booking"
	location := ""
	if in.Item != nil {
		title = in.Item.Title
		location = strings.Trim(strings.Join([]string{in.Item.Location, in.Item.City}, ", "), ", ")
	}
	currency := in.Currency
	if currency == "" {
		currency = "INR"
	}

	qrPath, err := r.writeQRCode(BookingURL(in.FrontendURL, b), b.ID.String())
	if err != nil {
		return nil, err
	}
	defer os.Remove(qrPath)

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Booking Receipt %s", b.ID.String()), true)
	pdf.SetAuthor("My Guide", true)
	pdf.SetKeywords(fmt.Sprintf("%s %s", slug.Make(title), b.ID.String()), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Booking Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	row := func(label string, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, tr(value), "", 1, "L", false, 0, "")
	}
	row("Booking ID", b.ID.String())
	row("Booked", title)
	if location != "" {
		row("Location", location)
	}
	row("Date", b.Date.Format("Mon, 02 Jan 2006"))
	if b.Time != "" {
		row("Time", b.Time)
	}
	row("Participants", fmt.Sprintf("%d", b.Participants))
	row("Status", string(b.Status))
	row("Payment", string(b.PaymentStatus))
	if b.PaymentID != nil {
		row("Payment reference", *b.PaymentID)
	}
	if in.Recipient.Name != "" {
		row("Customer", in.Recipient.Name)
	}
	if in.Recipient.Email != "" {
		row("Email", in.Recipient.Email)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 10, "Price breakdown", "B", 1, "L", false, 0, "")
	money := func(v float64) string { return fmt.Sprintf("%s %.2f", currency, v) }
	p := b.Pricing
	row("Base price", money(p.BasePrice))
	row("Subtotal", money(p.Subtotal))
	row("Tax", money(p.Tax))
	row("Service fee", money(p.ServiceFee))
	if p.PromoOff > 0 {
		row("Promo", "- "+money(p.PromoOff))
	}
	row("Total", money(b.TotalAmount))

	pdf.Ln(6)
	opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	pdf.ImageOptions(qrPath, 80, pdf.GetY(), 50, 50, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + 54)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().UTC().Format(time.RFC1123)), "", 1, "C", false, 0, "")

	if pdf.Err() {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *PDFReceiptRenderer) writeQRCode(content string, name string) (string, error) {
	dir := r.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	qrc, err := qrcode.New(content)
	if err != nil {
		return "", err
	}
	filepath := path.Join(dir, fmt.Sprintf("receipt-qr-%s-%d.jpeg", name, time.Now().UnixNano()))
	if err := qrc.Save(filepath); err != nil {
		return "", err
	}
	return filepath, nil
}

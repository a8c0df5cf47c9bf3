package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the e-ticket and receipt PDFs of a booking.
type DocsService struct {
	Store     BookingStore
	Buses     BusReader
	Routes    RouteReader
	Timeout   time.Duration
	RequestID string
	Loader    func(ctx context.Context, bookingID int64) (ticketDocData, error)
}

type ticketDocData struct {
	Booking   models.Booking
	BusNumber string
	RouteFrom string
	RouteTo   string
}

// GenerateETicket renders one page listing every passenger and seat. Only confirmed or
// completed bookings have a ticket.
func (s DocsService) GenerateETicket(ctx context.Context, bookingID int64, caller Caller) ([]byte, string, error) {
	data, err := s.load(ctx, bookingID, caller)
	if err != nil {
		return nil, "", err
	}
	st := data.Booking.Status
	if st != models.BookingStatusConfirmed && st != models.BookingStatusCompleted {
		return nil, "", domain.BookingNotConfirmedError{Status: string(st)}
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", "booking="+data.Booking.BookingNumber)
	return buildETicketPDF(data)
}

// GenerateReceipt renders the price breakdown. Available in any status.
func (s DocsService) GenerateReceipt(ctx context.Context, bookingID int64, caller Caller) ([]byte, string, error) {
	data, err := s.load(ctx, bookingID, caller)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_receipt", "booking="+data.Booking.BookingNumber)
	return buildReceiptPDF(data)
}

func (s DocsService) load(ctx context.Context, bookingID int64, caller Caller) (ticketDocData, error) {
	var (
		out ticketDocData
		err error
	)
	if s.Loader != nil {
		out, err = s.Loader(ctx, bookingID)
	} else {
		out, err = s.loadFromStore(ctx, bookingID)
	}
	if err != nil {
		return ticketDocData{}, err
	}
	if err := authorize(out.Booking, caller); err != nil {
		return ticketDocData{}, err
	}
	return out, nil
}

func (s DocsService) loadFromStore(ctx context.Context, bookingID int64) (ticketDocData, error) {
	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	b, err := s.Store.GetBooking(cctx, bookingID)
	if err != nil {
		return ticketDocData{}, storeError(err)
	}
	out := ticketDocData{Booking: b}
	// Bus and route only decorate the document; a lookup failure leaves the fields blank.
	if s.Buses != nil {
		if bus, err := s.Buses.GetBus(cctx, b.BusID); err == nil {
			out.BusNumber = bus.Number
		}
	}
	if s.Routes != nil {
		if route, err := s.Routes.GetRoute(cctx, b.RouteID); err == nil {
			out.RouteFrom = route.Origin.Name
			out.RouteTo = route.Destination.Name
		}
	}
	return out, nil
}

func buildETicketPDF(d ticketDocData) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+b.BookingNumber, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking No   : %s", b.BookingNumber),
		fmt.Sprintf("Route        : %s -> %s", safe(d.RouteFrom, "-"), safe(d.RouteTo, "-")),
		fmt.Sprintf("Departure    : %s %s", b.Journey.Date, b.Journey.DepartureTime),
		fmt.Sprintf("Bus          : %s", safe(d.BusNumber, "-")),
		fmt.Sprintf("Boarding     : %s", safe(b.Journey.BoardingPoint, "-")),
		fmt.Sprintf("Dropping     : %s", safe(b.Journey.DroppingPoint, "-")),
		fmt.Sprintf("Contact      : %s (%s)", safe(b.Contact.Name, "-"), safe(b.Contact.Phone, "-")),
		fmt.Sprintf("Status       : %s", b.Status),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(20, 8, "Seat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(90, 8, "Passenger", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 8, "Age", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Ticket", "1", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, p := range b.Passengers {
		pdf.CellFormat(20, 7, p.SeatNumber, "1", 0, "C", false, 0, "")
		pdf.CellFormat(90, 7, p.Name, "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", p.Age), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, string(p.TicketType), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please show this ticket and a valid ID when boarding. Check-in closes at departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ETICKET_%s.pdf", safeFilenamePart(b.BookingNumber)), nil
}

func buildReceiptPDF(d ticketDocData) ([]byte, string, error) {
	b := d.Booking
	cur := b.Pricing.Currency
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt "+b.BookingNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Booking No : "+b.BookingNumber)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Issued     : "+utils.FormatDateTime(b.CreatedAt, nil))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Trip       : %s -> %s (%s %s)", safe(d.RouteFrom, "-"), safe(d.RouteTo, "-"), b.Journey.Date, b.Journey.DepartureTime))
	pdf.Ln(10)

	rows := [][2]string{
		{fmt.Sprintf("Fare (%d passenger(s))", len(b.Passengers)), utils.FormatAmount(cur, b.Pricing.BasePrice)},
		{"VAT 13%", utils.FormatAmount(cur, b.Pricing.Taxes)},
	}
	if b.Pricing.Discount.Amount > 0 {
		rows = append(rows, [2]string{"Discount " + b.Pricing.Discount.Code, "-" + utils.FormatAmount(cur, b.Pricing.Discount.Amount)})
	}
	for _, r := range rows {
		pdf.CellFormat(120, 7, r[0], "", 0, "", false, 0, "")
		pdf.CellFormat(50, 7, r[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Total", "T", 0, "", false, 0, "")
	pdf.CellFormat(50, 8, utils.FormatAmount(cur, b.Pricing.TotalAmount), "T", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Payment: %s via %s", b.Payment.Status, safe(string(b.Payment.Method), "-")))
	pdf.Ln(6)
	if b.Payment.PaidAt != nil {
		pdf.Cell(0, 6, "Paid at: "+utils.FormatDateTime(*b.Payment.PaidAt, nil))
		pdf.Ln(6)
	}
	if b.Cancellation.IsCancelled {
		pdf.Cell(0, 6, fmt.Sprintf("Cancelled: fee %s, refund %s",
			utils.FormatAmount(cur, b.Cancellation.Fee), utils.FormatAmount(cur, b.Cancellation.RefundAmount)))
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("RECEIPT_%s.pdf", safeFilenamePart(b.BookingNumber)), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

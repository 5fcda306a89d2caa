package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/prostore/internal/domain"
)

const ordersSheet = "Orders"

var orderColumns = []any{"ID", "Date", "Buyer", "Email", "Method", "Items", "Tax", "Shipping", "Total", "Paid", "Paid at", "Delivered", "Delivered at"}

func (s *Server) handleAdminExportOrders(w http.ResponseWriter, r *http.Request) {
	var all []domain.Order
	for page := 1; ; page++ {
		p, err := s.orders.List(r.Context(), r.URL.Query().Get("query"), page)
		if err != nil {
			writeError(w, r, err)
			return
		}
		all = append(all, p.Orders...)
		if page >= p.TotalPages {
			break
		}
	}
	f, err := ordersWorkbook(all)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=orders-%s.xlsx", s.now().Format("20060102")))
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("write orders xlsx")
	}
}

// ordersWorkbook lays out one row per order under a header row.
func ordersWorkbook(orders []domain.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &orderColumns); err != nil {
		return nil, err
	}
	for i, o := range orders {
		buyer, email := "", ""
		if o.User != nil {
			buyer, email = o.User.Name, o.User.Email
		}
		row := []any{
			o.ID.String(),
			o.CreatedAt.Format("2006-01-02 15:04"),
			buyer,
			email,
			string(o.PaymentMethod),
			o.ItemsPrice.InexactFloat64(),
			o.TaxPrice.InexactFloat64(),
			o.ShippingPrice.InexactFloat64(),
			o.TotalPrice.InexactFloat64(),
			yesNo(o.IsPaid),
			timeCell(o.PaidAt),
			yesNo(o.IsDelivered),
			timeCell(o.DeliveredAt),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// Package pdf genera la boleta de requisición de una solicitud (pedido de bienes o
// reserva contra crédito) para firma en despacho.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Unidad + Solicitante  │  N° Solicitud + Estado       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FECHAS: Creada / Aprobada / Entregada / Emitida             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA (bienes): Cant | Producto | P.Unit | Subtotal          │
//	│  RESERVA (crédito): Categoría | Monto | Referencia           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  OBSERVACIONES + QR + Firmas                                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// SlipGenerator arma la boleta de requisición con Maroto v2.
type SlipGenerator struct {
	orgName string
}

// NewSlipGenerator construye el generador. orgName aparece en el encabezado.
func NewSlipGenerator(orgName string) *SlipGenerator {
	return &SlipGenerator{orgName: orgName}
}

// GenerateSlip genera el PDF de la solicitud y devuelve sus bytes.
func (g *SlipGenerator) GenerateSlip(_ context.Context, req *entity.FulfillmentRequest) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("pdf: solicitud nula")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Boleta de requisición "+req.ID, true).
		WithAuthor(nonEmpty(g.orgName, "Suministros"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.orgName, req))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(datesRow(req))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if req.Kind == entity.KindCredit {
		m.AddRows(bookingRows(req)...)
	} else {
		m.AddRows(tableHeaderRow())
		m.AddRows(tableDetailRows(req.Lines)...)
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(totalsRow(req))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRows(req)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: organización + unidad + solicitante (izq) y N° de solicitud + estado (der).
func headerRow(orgName string, req *entity.FulfillmentRequest) core.Row {
	title := "PEDIDO DE SUMINISTROS"
	if req.Kind == entity.KindCredit {
		title = "RESERVA CONTRA CRÉDITO"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(orgName, "Suministros"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Unidad: %s   |   Solicitante: %s",
				req.UnitID, nonEmpty(req.EmployeeName, req.RequestedBy),
			), props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(req.ID, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 7,
			}),
			text.New("Estado: "+string(req.Status), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// datesRow: hitos del ciclo de vida que ya ocurrieron.
func datesRow(req *entity.FulfillmentRequest) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("PERIODO DE CUOTA: %s", req.Period), props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Creada: %s   |   Aprobada: %s   |   Entregada: %s   |   Emitida: %s",
				formatDate(&req.CreatedAt),
				formatDate(req.ApprovedAt),
				formatDate(req.CompletedAt),
				formatDate(req.IssuedAt),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas con fondo azul simulado.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Producto", 6, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Subtotal", 3, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por línea del pedido.
func tableDetailRows(lines []entity.RequestLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		subtotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", l.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(6).Add(text.New(
				l.ProductID,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(l.UnitPrice.StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"$"+formatMoney(subtotal.StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: unidades y monto referencial del pedido.
func totalsRow(req *entity.FulfillmentRequest) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			label("Unidades:"),
			label("Monto referencial:"),
		),
		col.New(3).Add(
			value(fmt.Sprintf("%d", req.TotalQuantity())),
			value("$"+formatMoney(req.TotalAmount().StringFixed(0))),
		),
	)
}

// bookingRows: datos de la reserva contra crédito.
func bookingRows(req *entity.FulfillmentRequest) []core.Row {
	return []core.Row{
		row.New(20).Add(
			col.New(6).Add(
				text.New("CATEGORÍA DE CRÉDITO", props.Text{
					Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
				}),
				text.New(req.CreditCategory, props.Text{Style: fontstyle.Bold, Size: 11, Top: 7}),
			),
			col.New(6).Add(
				text.New("MONTO", props.Text{
					Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
				}),
				text.New("$"+formatMoney(req.Amount.StringFixed(0)), props.Text{
					Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
				}),
			),
		),
		row.New(12).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Referencia: %s   |   Instrucciones: %s",
				nonEmpty(req.BookingReference, "—"),
				nonEmpty(req.Instructions, "—"),
			), props.Text{Size: 8, Top: 2, Color: colorGray}),
		)),
	}
}

// footerRows: observaciones partidas, QR con el ID y espacio para firmas.
func footerRows(req *entity.FulfillmentRequest) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("OBSERVACIONES", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	for _, chunk := range splitEvery(nonEmpty(req.Remarks, "—"), 100) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 7, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}

	rows = append(rows, row.New(3))
	rows = append(rows, row.New(40).Add(
		col.New(4).Add(code.NewQr(req.ID, props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(4).Add(
			text.New("______________________", props.Text{Size: 9, Align: align.Center, Top: 24}),
			text.New("Entregado por", props.Text{Size: 8, Align: align.Center, Top: 30, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("______________________", props.Text{Size: 9, Align: align.Center, Top: 24}),
			text.New("Recibido por", props.Text{Size: 8, Align: align.Center, Top: 30, Color: colorGray}),
		),
	))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Format("02/01/2006 15:04")
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1500" → "-1.500"
func formatMoney(s string) string {
	sign := ""
	if len(s) > 0 && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	r := []rune(s)
	var parts []string
	for len(r) > n {
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}

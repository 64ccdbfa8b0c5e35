package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"ProductDesk/internal/product"
)

var (
	validTotal   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#2E7D32")).Padding(0, 1)
	invalidTotal = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#C62828")).Padding(0, 1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func renderProducts(w io.Writer, ps []product.Product) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "no products")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "PRICE", "TAX", "ADS", "REDUCTION", "TOTAL", "CATEGORY").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, p := range ps {
		total := ""
		if tt := p.Total(); tt.IsValid {
			total = num(tt.Total)
		}
		t.Row(
			strconv.FormatInt(p.ID, 10),
			p.Title,
			num(p.Price),
			num(p.Tax),
			num(p.AdsCost),
			num(p.Reduction),
			total,
			p.Category,
		)
	}
	fmt.Fprintln(w, t.String())
}

// renderTotal shows the total only when it is valid, like a form would.
func renderTotal(w io.Writer, t product.Total) {
	if !t.IsValid {
		fmt.Fprintln(w, invalidTotal.Render("Total :"))
		return
	}
	fmt.Fprintln(w, validTotal.Render("Total : "+num(t.Total)))
}

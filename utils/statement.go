// utils/statement.go
package utils

import (
	"bytes"
	"fmt"
	"time"

	"clinic-partner-system/models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Statement amounts are presented in pt-BR formatting; the ledger itself
// stays in integer minor units.
var statementPrinter = message.NewPrinter(language.BrazilianPortuguese)

func formatBRL(minorUnits int64) string {
	return statementPrinter.Sprintf("R$ %.2f", float64(minorUnits)/100)
}

// BuildStatementWorkbook renders a partner's ledger into an xlsx earnings
// statement and returns the serialized workbook.
func BuildStatementWorkbook(partner *models.Partner, events []models.ReferralEvent) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Extrato"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Data", "Tipo", "Cupom", "Valor da venda", "Comissão", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, ev := range events {
		values := []interface{}{
			ev.CreatedAt.Format("02/01/2006 15:04"),
			string(ev.Type),
			ev.CouponCode,
			formatBRL(ev.BaseValue),
			formatBRL(ev.CommissionValue),
			string(ev.Status),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
		row++
	}

	// Summary block under the ledger rows
	row++
	summary := [][2]interface{}{
		{"Parceiro", partner.Name},
		{"Nível", string(partner.Tier)},
		{"Indicações", partner.TotalReferrals},
		{"Total", formatBRL(partner.TotalEarnings)},
		{"Pendente", formatBRL(partner.PendingEarnings)},
		{"Pago", formatBRL(partner.PaidEarnings)},
		{"Gerado em", time.Now().Format("02/01/2006 15:04")},
	}
	for _, pair := range summary {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheet, labelCell, pair[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, valueCell, pair[1]); err != nil {
			return nil, err
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize statement workbook: %w", err)
	}
	return buf.Bytes(), nil
}

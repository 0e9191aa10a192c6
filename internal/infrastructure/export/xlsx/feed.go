// Package xlsx renders a notification feed as a spreadsheet for offline
// follow-up by fleet administrators.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type labels struct {
	notificationsSheet string
	summarySheet       string
	columns            []any
	statuses           map[domain.ExpiryStatus]string
	expired            string
	expiringSoon       string
	total              string
	generatedAt        string
}

var localized = map[domain.Locale]labels{
	domain.LocaleArabic: {
		notificationsSheet: "التنبيهات",
		summarySheet:       "الملخص",
		columns:            []any{"الحالة", "العنوان", "الرسالة", "رقم اللوحة", "الطراز", "تاريخ الانتهاء", "الأيام المتبقية"},
		statuses: map[domain.ExpiryStatus]string{
			domain.StatusExpired:      "منتهي",
			domain.StatusExpiringSoon: "ينتهي قريباً",
		},
		expired:      "منتهية",
		expiringSoon: "تنتهي قريباً",
		total:        "الإجمالي",
		generatedAt:  "تاريخ التقرير",
	},
	domain.LocaleEnglish: {
		notificationsSheet: "Notifications",
		summarySheet:       "Summary",
		columns:            []any{"Status", "Title", "Message", "Plate", "Model", "Expiry date", "Days remaining"},
		statuses: map[domain.ExpiryStatus]string{
			domain.StatusExpired:      "Expired",
			domain.StatusExpiringSoon: "Expiring soon",
		},
		expired:      "Expired",
		expiringSoon: "Expiring soon",
		total:        "Total",
		generatedAt:  "Generated at",
	},
}

const (
	expiredFill      = "#F8D7DA"
	expiringSoonFill = "#FFF3CD"
)

// WriteFeed writes the feed in its own order, one row per notification, plus
// a summary sheet with the badge counters. Arabic feeds get right-to-left
// sheets.
func WriteFeed(w io.Writer, feed domain.Feed) error {
	l, ok := localized[feed.Locale]
	if !ok {
		return domain.WrapError(domain.ErrUnsupportedLocale, "export feed", fmt.Errorf("locale=%q", feed.Locale))
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := l.notificationsSheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeNotifications(f, sheet, l, feed); err != nil {
		return err
	}
	if err := writeSummary(f, l, feed); err != nil {
		return err
	}

	if feed.Locale == domain.LocaleArabic {
		rtl := true
		for _, name := range []string{l.notificationsSheet, l.summarySheet} {
			if err := f.SetSheetView(name, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
				return fmt.Errorf("set sheet direction: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeNotifications(f *excelize.File, sheet string, l labels, feed domain.Feed) error {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	fills := make(map[domain.ExpiryStatus]int, 2)
	for status, color := range map[domain.ExpiryStatus]string{
		domain.StatusExpired:      expiredFill,
		domain.StatusExpiringSoon: expiringSoonFill,
	} {
		id, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}})
		if err != nil {
			return fmt.Errorf("create status style: %w", err)
		}
		fills[status] = id
	}

	if err := f.SetSheetRow(sheet, "A1", &l.columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, n := range feed.Notifications {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		values := []any{
			l.statuses[n.Status],
			n.Title,
			n.Message,
			n.VehiclePlate,
			n.VehicleModel,
			n.ExpiryDate,
			n.DaysRemaining,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		last, err := excelize.CoordinatesToCellName(len(values), row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, last, fills[n.Status]); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "G", 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, l labels, feed domain.Feed) error {
	if _, err := f.NewSheet(l.summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	rows := [][]any{
		{l.expired, feed.ExpiredCount},
		{l.expiringSoon, feed.ExpiringSoonCount},
		{l.total, feed.TotalCount},
		{l.generatedAt, feed.Today.Format("2006-01-02 15:04")},
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(l.summarySheet, cell, &values); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return f.SetColWidth(l.summarySheet, "A", "B", 20)
}

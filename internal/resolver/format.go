package resolver

import (
	"fmt"
	"time"
)

// weekdayNames is indexed by time.Weekday (0 = Sunday).
var weekdayNames = [7]string{
	"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado",
}

// monthNames is indexed by time.Month (1 = January).
var monthNames = [13]string{
	"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDate renders a date in long Spanish form, e.g. "28 de octubre de 2024".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()], t.Year())
}

// FormatCurrency renders an amount with a dollar prefix, e.g. "$45.50".
func FormatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

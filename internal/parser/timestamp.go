package parser

import (
	"strconv"
	"time"
)

// Todas las marcas de tiempo se interpretan como UTC: los exports no traen
// zona IANA, asi que lo naive se asume UTC y queda registrado en los
// diagnosticos del resultado.

// normalizeYear mapea años de dos digitos: YY <= 69 va a 2000+YY, el resto a
// 1900+YY.
func normalizeYear(y int) int {
	if y >= 100 {
		return y
	}
	if y <= 69 {
		return 2000 + y
	}
	return 1900 + y
}

// to24Hour convierte tokens AM/PM a reloj de 24 horas.
func to24Hour(h int, ampm string) int {
	switch ampm {
	case "AM", "am":
		if h == 12 {
			return 0
		}
	case "PM", "pm":
		if h < 12 {
			return h + 12
		}
	}
	return h
}

// makeUTC arma el instante y valida que los componentes existan en el
// calendario (rechaza 30 de febrero y similares).
func makeUTC(year, month, day, hour, min, sec int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// dayMonthOrder decide dia/mes para formatos ambiguos: si el primer campo no
// puede ser mes se trata como dia; por defecto orden mes/dia (exports en
// locale US).
func dayMonthOrder(a, b int) (month, day int) {
	if a > 12 && b <= 12 {
		return b, a
	}
	return a, b
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

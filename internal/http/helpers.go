package http

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"trackr/internal/core"
)

// clientIP extracts the client address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatAmount renders minor units as a decimal string (e.g. "12.34").
func formatAmount(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount/100, 10) + "." + fmt.Sprintf("%02d", amount%100)
	if neg {
		return "-" + s
	}
	return s
}

// periodLabel renders a period for column headers (e.g. "Jan 2025").
func periodLabel(p core.Period) string {
	m := string(p.Month)
	if m == "" {
		return strconv.Itoa(p.Year)
	}
	return strings.ToUpper(m[:1]) + m[1:] + " " + strconv.Itoa(p.Year)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"amount":      formatAmount,
		"periodLabel": periodLabel,
	}
}

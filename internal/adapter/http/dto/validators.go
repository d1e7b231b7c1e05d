package dto

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"
	"time"

	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Za-z0-9]{2,10}$`)

const dateOnly = "2006-01-02"

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency_code", validateCurrencyCode)
	}
}

// validateCurrencyCode checks the shape of a code only. Whether the code is in
// the catalog is decided by the currency registry, case-sensitively.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodeRe.MatchString(fl.Field().String())
}

// ToFilter parses the query string into a service filter. Range and paging
// rules are enforced by the query service.
func (q TransactionQuery) ToFilter() (ports.TransactionFilter, error) {
	f := ports.TransactionFilter{
		Type:   strings.TrimSpace(q.Type),
		Limit:  q.Limit,
		Offset: q.Offset,
	}

	var err error
	if f.StartDate, err = parseDate(q.StartDate, false); err != nil {
		return f, fmt.Errorf("start_date: %w", err)
	}
	if f.EndDate, err = parseDate(q.EndDate, true); err != nil {
		return f, fmt.Errorf("end_date: %w", err)
	}
	return f, nil
}

// parseDate accepts RFC 3339 or a bare date. A bare end date covers the whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("expected RFC 3339 or %s, got %q", dateOnly, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

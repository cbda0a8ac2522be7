package render

import (
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money formats whole pounds with thousands separators. Zero is blank.
type Money struct {
	printer *message.Printer
}

func NewMoney() Money {
	return Money{printer: message.NewPrinter(language.BritishEnglish)}
}

func (m Money) Format(amount int64) string {
	if amount == 0 {
		return ""
	}
	return m.printer.Sprintf("£%d", amount)
}

// Notes sanitises free-text award notes, which may carry markup.
type Notes struct {
	policy *bluemonday.Policy
}

func NewNotes() Notes {
	return Notes{policy: bluemonday.UGCPolicy()}
}

func (n Notes) Sanitize(text string) template.HTML {
	return template.HTML(n.policy.Sanitize(text))
}

func percent(n, total int) string {
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", float64(n)*100/float64(total))
}

func dot(v bool) string {
	if v {
		return "●"
	}
	return ""
}

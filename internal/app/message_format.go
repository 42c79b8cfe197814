package app

import (
	"fmt"
	"strings"
	"time"

	"commitment_notifier/internal/domain/commitment"
	"commitment_notifier/internal/domain/company"

	"github.com/shopspring/decimal"
)

// FormatCOP renders an amount as Colombian pesos without decimals, e.g. $1.500.000.
func FormatCOP(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	digits := rounded.String()

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}

// MessageFormatter builds the Spanish notification texts.
type MessageFormatter struct {
	loc *time.Location
}

func NewMessageFormatter(loc *time.Location) *MessageFormatter {
	if loc == nil {
		loc = time.UTC
	}
	return &MessageFormatter{loc: loc}
}

// FormatDate renders t as dd/mm/yyyy in the formatter's location.
func (f *MessageFormatter) FormatDate(t time.Time) string {
	return t.In(f.loc).Format("02/01/2006")
}

// CommitmentDetails is what every commitment message shows.
type CommitmentDetails struct {
	CompanyName string
	Beneficiary string
	Concept     string
	Amount      decimal.Decimal
	DueDate     time.Time
}

// DetailsFor collects the message fields of c. A missing company name falls back to the ID.
func DetailsFor(c *commitment.Commitment, comp *company.Company) CommitmentDetails {
	d := CommitmentDetails{
		CompanyName: fmt.Sprintf("Empresa #%d", c.CompanyID),
		Beneficiary: c.Beneficiary,
		Concept:     c.Concept,
		Amount:      c.Amount,
	}
	if comp != nil && comp.Name != "" {
		d.CompanyName = comp.Name
	}
	if c.DueDate.Valid {
		d.DueDate = c.DueDate.Time
	}
	if d.Beneficiary == "" {
		d.Beneficiary = "No especificado"
	}
	return d
}

func (f *MessageFormatter) header(b *strings.Builder, title string, d CommitmentDetails) {
	fmt.Fprintf(b, "%s\n\n", title)
	fmt.Fprintf(b, "🏢 Empresa: %s\n", d.CompanyName)
	if d.Concept != "" {
		fmt.Fprintf(b, "📋 Concepto: %s\n", d.Concept)
	}
	fmt.Fprintf(b, "👤 Beneficiario: %s\n", d.Beneficiary)
	if !d.Amount.IsZero() {
		fmt.Fprintf(b, "💰 Valor: %s\n", FormatCOP(d.Amount))
	}
	if d.DueDate.IsZero() {
		b.WriteString("📅 Vencimiento: No especificado\n")
	} else {
		fmt.Fprintf(b, "📅 Vencimiento: %s\n", f.FormatDate(d.DueDate))
	}
}

// CommitmentUpcoming is sent at the 15, 7 and 2 day horizons.
func (f *MessageFormatter) CommitmentUpcoming(d CommitmentDetails, daysLeft int) string {
	var b strings.Builder
	f.header(&b, "🚨 *COMPROMISO PRÓXIMO A VENCER*", d)
	fmt.Fprintf(&b, "⏰ Días restantes: %d\n\n", daysLeft)
	b.WriteString("¡No olvides realizar el pago!")
	return b.String()
}

// CommitmentDueToday is sent on the due date.
func (f *MessageFormatter) CommitmentDueToday(d CommitmentDetails) string {
	var b strings.Builder
	f.header(&b, "❌ *COMPROMISO VENCE HOY*", d)
	b.WriteString("\n⚠️ ¡Atención urgente requerida!")
	return b.String()
}

// CommitmentOverdue is sent the day after an unpaid commitment expired.
func (f *MessageFormatter) CommitmentOverdue(d CommitmentDetails, daysLate int) string {
	var b strings.Builder
	f.header(&b, "❌ *COMPROMISO VENCIDO*", d)
	fmt.Fprintf(&b, "⌛ Días de retraso: %d\n\n", daysLate)
	b.WriteString("⚠️ ¡Atención urgente requerida!")
	return b.String()
}

func (f *MessageFormatter) NewCommitment(d CommitmentDetails) string {
	var b strings.Builder
	f.header(&b, "📝 *NUEVO COMPROMISO AGREGADO*", d)
	b.WriteString("\n✅ Compromiso registrado exitosamente")
	return b.String()
}

func (f *MessageFormatter) AutomaticEvent(eventName string, date time.Time) string {
	return fmt.Sprintf("📋 *RECORDATORIO: %s*\n\n📅 Fecha: %s\n\n🔔 No olvides cumplir con esta obligación",
		strings.ToUpper(eventName), f.FormatDate(date))
}

// Contract builds the contract alert for the matched horizon.
func (f *MessageFormatter) Contract(companyName string, h company.ContractHorizon, expiration time.Time, daysLeft int) string {
	var b strings.Builder
	switch {
	case h.Expired:
		b.WriteString("❌ *CONTRATO VENCIDO*\n\n")
	case h.Days == 0:
		b.WriteString("🚨 *CONTRATO VENCE HOY*\n\n")
	default:
		fmt.Fprintf(&b, "📄 *CONTRATO VENCE EN %s*\n\n", strings.ToUpper(h.Label))
	}
	fmt.Fprintf(&b, "🏢 Empresa: %s\n", companyName)
	fmt.Fprintf(&b, "📅 Vencimiento del contrato: %s\n", f.FormatDate(expiration))
	if h.Expired {
		fmt.Fprintf(&b, "⌛ Días vencido: %d\n\n", -daysLeft)
		b.WriteString("⚠️ Renueva el contrato lo antes posible")
	} else {
		fmt.Fprintf(&b, "⏰ Días restantes: %d\n\n", daysLeft)
		b.WriteString("🔔 Revisa las condiciones de renovación")
	}
	return b.String()
}

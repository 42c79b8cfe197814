package notification

import "fmt"

// Category groups notification types.
type Category string

const (
	CategoryCommitmentsDue      Category = "commitments_due"
	CategoryCommitmentsCritical Category = "commitments_critical"
	CategoryContracts           Category = "contracts"
	CategorySystem              Category = "system"
)

// Type is a static catalog entry describing a kind of alert.
type Type struct {
	ID            string
	Category      Category
	Name          string
	ScheduledTime string // HH:MM local time, empty for instant notifications
	Priority      string
	Subject       string
}

const (
	TypeDueIn15Days       = "due_in_15_days"
	TypeDueIn7Days        = "due_in_7_days"
	TypeDueIn2Days        = "due_in_2_days"
	TypeDueToday          = "due_today"
	TypeCommitmentOverdue = "commitment_overdue"
	TypeNewCommitment     = "new_commitment"
	TypeAutomaticEvent    = "automatic_event"
	TypeTest              = "test_message"
	TypeTemplate          = "whatsapp_template"
)

var catalog = map[string]Type{
	TypeDueIn15Days:       {ID: TypeDueIn15Days, Category: CategoryCommitmentsDue, Name: "15 días antes del vencimiento", ScheduledTime: "09:00", Priority: "normal", Subject: "📅 Recordatorio: Compromiso vence en 15 días"},
	TypeDueIn7Days:        {ID: TypeDueIn7Days, Category: CategoryCommitmentsDue, Name: "1 semana antes del vencimiento", ScheduledTime: "09:00", Priority: "high", Subject: "⚠️ Importante: Compromiso vence en 7 días"},
	TypeDueIn2Days:        {ID: TypeDueIn2Days, Category: CategoryCommitmentsDue, Name: "2 días antes del vencimiento", ScheduledTime: "08:00", Priority: "critical", Subject: "🚨 URGENTE: Compromiso vence en 2 días"},
	TypeDueToday:          {ID: TypeDueToday, Category: CategoryCommitmentsDue, Name: "El día del vencimiento", ScheduledTime: "07:00", Priority: "critical", Subject: "🔴 CRÍTICO: Compromiso vence HOY"},
	TypeCommitmentOverdue: {ID: TypeCommitmentOverdue, Category: CategoryCommitmentsCritical, Name: "Compromiso Vencido", ScheduledTime: "10:00", Priority: "critical", Subject: "❌ COMPROMISO VENCIDO - Acción requerida"},
	TypeNewCommitment:     {ID: TypeNewCommitment, Category: CategoryCommitmentsDue, Name: "Nuevo compromiso", Priority: "normal", Subject: "📝 Nuevo compromiso agregado"},
	"contract_365_days":   {ID: "contract_365_days", Category: CategoryContracts, Name: "Contrato vence en 1 año", ScheduledTime: "09:00", Priority: "low", Subject: "📄 Recordatorio: Contrato vence en 1 año"},
	"contract_180_days":   {ID: "contract_180_days", Category: CategoryContracts, Name: "Contrato vence en 6 meses", ScheduledTime: "09:00", Priority: "normal", Subject: "📋 Importante: Contrato vence en 6 meses"},
	"contract_90_days":    {ID: "contract_90_days", Category: CategoryContracts, Name: "Contrato vence en 3 meses", ScheduledTime: "09:00", Priority: "high", Subject: "⚠️ Atención: Contrato vence en 3 meses"},
	"contract_30_days":    {ID: "contract_30_days", Category: CategoryContracts, Name: "Contrato vence en 1 mes", ScheduledTime: "08:00", Priority: "high", Subject: "🚨 URGENTE: Contrato vence en 30 días"},
	"contract_due_today":  {ID: "contract_due_today", Category: CategoryContracts, Name: "Contrato vence hoy", Priority: "critical", Subject: "🚨 CRÍTICO: Contrato vence HOY"},
	"contract_expired":    {ID: "contract_expired", Category: CategoryContracts, Name: "Contrato Vencido", Priority: "critical", Subject: "❌ CRÍTICO: Contrato VENCIDO"},
	TypeAutomaticEvent:    {ID: TypeAutomaticEvent, Category: CategorySystem, Name: "Evento automático", ScheduledTime: "09:00", Priority: "normal", Subject: "📋 Recordatorio de obligación"},
	TypeTest:              {ID: TypeTest, Category: CategorySystem, Name: "Mensaje de prueba", Priority: "normal", Subject: "🧪 Prueba de notificación"},
	TypeTemplate:          {ID: TypeTemplate, Category: CategorySystem, Name: "Plantilla WhatsApp", Priority: "normal", Subject: "Plantilla"},
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Type, error) {
	t, ok := catalog[id]
	if !ok {
		return Type{}, fmt.Errorf("unknown notification type: %s", id)
	}
	return t, nil
}

// CommitmentHorizons are the day counts before due date at which the daily
// check alerts about a commitment.
var CommitmentHorizons = []int{15, 7, 2, 0}

// TypeForCommitmentHorizon maps a commitment horizon to its catalog entry.
func TypeForCommitmentHorizon(days int) (string, bool) {
	switch days {
	case 15:
		return TypeDueIn15Days, true
	case 7:
		return TypeDueIn7Days, true
	case 2:
		return TypeDueIn2Days, true
	case 0:
		return TypeDueToday, true
	default:
		return "", false
	}
}

package company

// ContractHorizon is one of the fixed alert points before or after a
// contract expiration date.
type ContractHorizon struct {
	Days             int    // Days until expiration; ignored for the expired horizon
	Label            string // Human readable period, e.g. "6 meses"
	NotificationType string
	Expired          bool
}

// ExpiredAlertDays is how long after expiration the daily expired alert keeps firing.
const ExpiredAlertDays = 30

// ContractHorizons lists the six contract alert horizons.
var ContractHorizons = []ContractHorizon{
	{Days: 365, Label: "1 año", NotificationType: "contract_365_days"},
	{Days: 180, Label: "6 meses", NotificationType: "contract_180_days"},
	{Days: 90, Label: "3 meses", NotificationType: "contract_90_days"},
	{Days: 30, Label: "1 mes", NotificationType: "contract_30_days"},
	{Days: 0, Label: "hoy", NotificationType: "contract_due_today"},
	{Label: "vencido", NotificationType: "contract_expired", Expired: true},
}

// MatchContractHorizon returns the horizon that fires for the given number
// of days until expiration, if any.
func MatchContractHorizon(daysUntilExpiration int) (ContractHorizon, bool) {
	if daysUntilExpiration < 0 {
		if daysUntilExpiration >= -ExpiredAlertDays {
			return ContractHorizons[len(ContractHorizons)-1], true
		}
		return ContractHorizon{}, false
	}
	for _, h := range ContractHorizons {
		if !h.Expired && h.Days == daysUntilExpiration {
			return h, true
		}
	}
	return ContractHorizon{}, false
}

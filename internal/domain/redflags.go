package domain

// Severity clasifica un hallazgo del detector.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Health es la etiqueta derivada de salud de la conversacion.
type Health string

const (
	HealthHealthy    Health = "healthy"
	HealthModerate   Health = "moderate"
	HealthConcerning Health = "concerning"
)

// Finding es un hallazgo tipado del detector de red flags.
type Finding struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
}

// RedFlagReport agrupa hallazgos duros y advertencias blandas.
// OverallHealth se deriva de los conteos, nunca se fija aparte:
// concerning si TotalRedFlags >= 2 o alguna severidad high; moderate si hay
// algun red flag o TotalWarnings >= 2; healthy en el resto.
type RedFlagReport struct {
	RedFlags      []Finding `json:"red_flags"`
	Warnings      []Finding `json:"warnings"`
	TotalRedFlags int       `json:"total_red_flags"`
	TotalWarnings int       `json:"total_warnings"`
	OverallHealth Health    `json:"overall_health"`
}

// DeriveHealth aplica la regla de derivacion sobre un reporte ya armado.
func DeriveHealth(redFlags, warnings []Finding) Health {
	anyHigh := false
	for _, f := range redFlags {
		if f.Severity == SeverityHigh {
			anyHigh = true
			break
		}
	}
	switch {
	case len(redFlags) >= 2 || anyHigh:
		return HealthConcerning
	case len(redFlags) > 0 || len(warnings) >= 2:
		return HealthModerate
	default:
		return HealthHealthy
	}
}

package knowledge

import "strings"

// Intent is the recognized purpose of a user message.
type Intent string

const (
	IntentInformacionLugar Intent = "informacion_general_lugar"
	IntentActividades      Intent = "buscar_actividades"
	IntentServiciosLocal   Intent = "buscar_servicios_local"
	IntentParroquia        Intent = "informacion_parroquia"
	IntentEtiqueta         Intent = "explicar_etiqueta"
	IntentHorario          Intent = "consultar_horario"
	IntentListarEtiquetas  Intent = "listar_etiquetas"
	IntentSaludo           Intent = "saludo"
	IntentAgradecimiento   Intent = "agradecimiento"
	IntentDespedida        Intent = "despedida"
	IntentDesconocida      Intent = "desconocida"
)

type intentRule struct {
	intent   Intent
	keywords []string
}

// intentRules is evaluated strictly in order; the first rule with any keyword
// present in the lowered text wins. Reordering changes classification for
// messages matching several rules, so the order is part of the contract.
var intentRules = []intentRule{
	{IntentInformacionLugar, []string{"cuéntame sobre", "información de", "dime sobre", "dame información de", "quiero saber de"}},
	{IntentActividades, []string{"qué puedo hacer", "actividades en", "actividades para"}},
	{IntentServiciosLocal, []string{"qué servicios ofrece", "servicios de", "qué hay en"}},
	{IntentParroquia, []string{"dame información detallada sobre la parroquia", "cuéntame de la parroquia", "sobre la parroquia"}},
	{IntentEtiqueta, []string{"qué significa la etiqueta", "definición de", "explica la etiqueta"}},
	{IntentHorario, []string{"cuál es el horario de", "cuándo abre", "horario de atención de"}},
	{IntentListarEtiquetas, []string{"qué etiquetas tiene", "etiquetas de"}},
	{IntentSaludo, []string{"hola", "saludos", "qué tal", "buenos días", "buenas tardes", "buenas noches"}},
	{IntentAgradecimiento, []string{"gracias", "agradezco", "te lo agradezco"}},
	{IntentDespedida, []string{"adiós", "chau", "hasta luego", "nos vemos", "bye"}},
}

// Classifier recognizes the intent of Spanish user messages with keyword
// rules, falling back to entity presence when no keyword matches.
type Classifier struct {
	resolver *Resolver
}

func NewClassifier(resolver *Resolver) *Classifier {
	return &Classifier{resolver: resolver}
}

// Classify returns the first matching intent in rule order. When no keyword
// matches but the text resolves to a known entity (even ambiguously), the
// message is treated as a general information request.
func (c *Classifier) Classify(text string) Intent {
	lower := strings.ToLower(text)

	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}

	if ref := c.resolver.Resolve(text); !ref.IsNone() {
		return IntentInformacionLugar
	}

	return IntentDesconocida
}

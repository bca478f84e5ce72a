package knowledge

import (
	"strings"
	"testing"
)

// newTestResponder wires a responder whose resolver has pinned scores and no
// named-entity fallback, sharing one resolver between classifier and
// responder the way NewResponder does.
func newTestResponder(s *Store, scores map[string]int) *Responder {
	resolver := newTestResolver(s, scores)
	return &Responder{
		store:      s,
		resolver:   resolver,
		classifier: NewClassifier(resolver),
	}
}

func TestRespondPlaceDeduplicatesActivities(t *testing.T) {
	r := newTestResponder(testStore(), map[string]int{"Malecón Luz de América": 95})

	reply := r.Respond("Cuéntame sobre Malecón Luz de América")
	if reply.Deferred {
		t.Fatal("known place deferred")
	}
	if got := strings.Count(reply.Text, "Ciclismo"); got != 1 {
		t.Errorf("Ciclismo listed %d times", got)
	}
	if !strings.Contains(reply.Text, "Ciclismo (💰 $5)") {
		t.Error("price missing from Ciclismo line")
	}
	if !strings.Contains(reply.Text, "• Senderismo") {
		t.Error("Senderismo line missing")
	}
	if strings.Contains(reply.Text, "Senderismo (") {
		t.Error("Senderismo rendered with a price it does not have")
	}
}

func TestRespondActivityPlaceholderPriceHidden(t *testing.T) {
	s := testStore()
	s.addPlace(Place{
		Nombre:      "Balneario El Paraíso",
		Parroquia:   "Valle Hermoso",
		Descripcion: "balneario de río",
		Actividades: []Activity{{Nombre: "Natación", Precio: "No especificado"}},
	})
	r := newTestResponder(s, map[string]int{"Balneario El Paraíso": 95})

	reply := r.Respond("cuéntame sobre Balneario El Paraíso")
	if !strings.Contains(reply.Text, "• Natación") {
		t.Fatal("actividad missing")
	}
	if strings.Contains(reply.Text, "No especificado") {
		t.Error("placeholder price leaked into reply")
	}
}

func TestRespondAmbiguityWinsOverIntent(t *testing.T) {
	r := newTestResponder(testStore(), map[string]int{
		"Parque de la Juventud": 90,
		"Parque del Lago":       88,
	})

	reply := r.Respond("cuéntame sobre el parque")
	if !strings.Contains(reply.Text, "varias opciones") {
		t.Fatalf("expected disambiguation prompt, got %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "1. Parque de la Juventud") ||
		!strings.Contains(reply.Text, "2. Parque del Lago") {
		t.Errorf("candidates missing or misordered: %q", reply.Text)
	}
	if reply.Deferred {
		t.Error("ambiguous reply must not defer")
	}
}

func TestRespondBusinessWithoutHours(t *testing.T) {
	r := newTestResponder(testStore(), map[string]int{"Agachaditos": 90})

	reply := r.Respond("horario de atención de Agachaditos")
	want := "No se encontró información de horarios para **Agachaditos**."
	if reply.Text != want {
		t.Errorf("got %q, want %q", reply.Text, want)
	}
}

func TestRespondHorario(t *testing.T) {
	r := newTestResponder(testStore(), map[string]int{"Restaurante La Choza": 90})

	reply := r.Respond("horario de atención de Restaurante La Choza")
	want := "El horario de atención de **Restaurante La Choza** es: **Lunes: 08:00 - 17:00, Martes: 08:00 - 17:00**."
	if reply.Text != want {
		t.Errorf("got %q", reply.Text)
	}
}

func TestRespondParroquiaResumen(t *testing.T) {
	r := newTestResponder(testStore(), map[string]int{"Luz de América": 90})

	reply := r.Respond("cuéntame de la parroquia Luz de América")
	if !strings.Contains(reply.Text, "La parroquia **Luz de América** se caracteriza por:") {
		t.Errorf("summary template missing: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "**12000** habitantes") {
		t.Errorf("population missing: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "**24°C**") {
		t.Errorf("temperature missing: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "Malecón Luz de América") {
		t.Errorf("contained places missing: %q", reply.Text)
	}
}

func TestRespondListaEtiquetas(t *testing.T) {
	s := testStore()
	// The same name as place and business unions both tag sets.
	s.addBusiness(Business{Nombre: "Malecón Luz de América", Etiquetas: []string{"gastronomía", "recreación"}})
	r := newTestResponder(s, map[string]int{"Malecón Luz de América": 95})

	reply := r.Respond("qué etiquetas tiene Malecón Luz de América")
	want := "**Malecón Luz de América** está asociado con las etiquetas: **gastronomía, naturaleza, recreación**."
	if reply.Text != want {
		t.Errorf("got %q", reply.Text)
	}
}

func TestRespondUnknownDefers(t *testing.T) {
	r := newTestResponder(testStore(), nil)

	reply := r.Respond("")
	if !reply.Deferred {
		t.Error("empty input must defer")
	}
	if reply.Lodging {
		t.Error("empty input flagged as lodging")
	}
	if !strings.Contains(reply.Text, "Puedo ayudarte con") {
		t.Errorf("capability menu missing: %q", reply.Text)
	}
}

func TestRespondLodgingDefersToSearcher(t *testing.T) {
	r := newTestResponder(testStore(), nil)

	reply := r.Respond("¿dónde encuentro hoteles baratos?")
	if !reply.Deferred || !reply.Lodging {
		t.Errorf("lodging question got Deferred=%v Lodging=%v", reply.Deferred, reply.Lodging)
	}
}

func TestRespondGreetingNotDeferred(t *testing.T) {
	r := newTestResponder(testStore(), nil)

	reply := r.Respond("hola")
	if reply.Deferred {
		t.Error("greeting deferred")
	}
	if !strings.Contains(reply.Text, "asistente turístico") {
		t.Errorf("greeting text unexpected: %q", reply.Text)
	}
}

func TestRespondNeverEmpty(t *testing.T) {
	r := newTestResponder(testStore(), map[string]int{"Parque del Lago": 75})

	inputs := []string{
		"",
		"hola",
		"gracias",
		"adiós",
		"cuéntame sobre Malecón Luz de América",
		"qué puedo hacer en parque",
		"qué servicios ofrece Restaurante La Choza",
		"definición de aventura",
		"texto sin sentido alguno",
	}
	for _, in := range inputs {
		if reply := r.Respond(in); strings.TrimSpace(reply.Text) == "" {
			t.Errorf("empty reply for %q", in)
		}
	}
}

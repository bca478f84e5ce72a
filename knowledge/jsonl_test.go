package knowledge

import (
	"errors"
	"strings"
	"testing"
)

func record(assistant string) string {
	var b strings.Builder
	b.WriteString(`{"messages": [{"role": "user", "content": "pregunta"}, {"role": "assistant", "content": "`)
	b.WriteString(strings.ReplaceAll(assistant, `"`, `\"`))
	b.WriteString(`"}]}`)
	return b.String()
}

func TestParseJSONLPunto(t *testing.T) {
	line := record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. " +
		"Es una comuna tsáchila tradicional. " +
		"Este lugar está categorizado como: cultura, etnia tsáchila. " +
		"Las actividades disponibles incluyen: Ciclismo ($5), Senderismo. ")

	store, err := parseJSONLStream(strings.NewReader(line), "test")
	if err != nil {
		t.Fatal(err)
	}

	place, ok := store.Place("Congoma")
	if !ok {
		t.Fatal("place not loaded")
	}
	if place.Parroquia != "Santo Domingo" {
		t.Errorf("parroquia = %q", place.Parroquia)
	}
	if place.Descripcion != "Es una comuna tsáchila tradicional" {
		t.Errorf("descripcion = %q", place.Descripcion)
	}
	if len(place.Actividades) != 2 {
		t.Fatalf("actividades = %v", place.Actividades)
	}
	if place.Actividades[0].Nombre != "Ciclismo" || place.Actividades[0].Precio != "$5" {
		t.Errorf("first actividad = %+v", place.Actividades[0])
	}
	if place.Actividades[1].Nombre != "Senderismo" || place.Actividades[1].Precio != "" {
		t.Errorf("second actividad = %+v", place.Actividades[1])
	}
	if len(place.Etiquetas) != 2 || place.Etiquetas[1] != "etnia tsáchila" {
		t.Errorf("etiquetas = %v", place.Etiquetas)
	}
}

func TestParseJSONLParroquia(t *testing.T) {
	line := record("**Luz de América** es una parroquia rural que se caracteriza por: su producción agrícola. " +
		"Tiene una población aproximada de 12000 habitantes y una temperatura promedio de 24°C.")

	store, err := parseJSONLStream(strings.NewReader(line), "test")
	if err != nil {
		t.Fatal(err)
	}

	parish, ok := store.Parish("Luz de América")
	if !ok {
		t.Fatal("parish not loaded")
	}
	if parish.Descripcion != "su producción agrícola" {
		t.Errorf("descripcion = %q", parish.Descripcion)
	}
	if parish.Poblacion != "12000" {
		t.Errorf("poblacion = %q", parish.Poblacion)
	}
	if parish.Temperatura != "24" {
		t.Errorf("temperatura = %q", parish.Temperatura)
	}
}

func TestParseJSONLLocalYHorario(t *testing.T) {
	lines := strings.Join([]string{
		record("**Restaurante La Choza** es un local turístico que se describe como: 'comida típica tsáchila'. " +
			"Entre sus servicios se encuentran: **restaurante, parqueadero**."),
		record("El horario de atención de **Restaurante La Choza** es: **Lunes: 08:00 - 17:00, Martes: 08:00 - 17:00**."),
	}, "\n")

	store, err := parseJSONLStream(strings.NewReader(lines), "test")
	if err != nil {
		t.Fatal(err)
	}

	business, ok := store.Business("Restaurante La Choza")
	if !ok {
		t.Fatal("business not loaded")
	}
	if business.Descripcion != "comida típica tsáchila" {
		t.Errorf("descripcion = %q", business.Descripcion)
	}
	if len(business.Servicios) != 2 || business.Servicios[1] != "parqueadero" {
		t.Errorf("servicios = %v", business.Servicios)
	}
	if len(business.Horarios) != 2 {
		t.Fatalf("horarios = %v", business.Horarios)
	}
	if business.Horarios[0].Dia != "Lunes" || business.Horarios[0].Rango != "08:00 - 17:00" {
		t.Errorf("first horario = %+v", business.Horarios[0])
	}
}

func TestParseJSONLRepeatedHorarioNotDuplicated(t *testing.T) {
	horario := record("El horario de atención de **Restaurante La Choza** es: **Lunes: 08:00 - 17:00, Martes: 08:00 - 17:00**.")
	lines := strings.Join([]string{horario, horario}, "\n")

	store, err := parseJSONLStream(strings.NewReader(lines), "test")
	if err != nil {
		t.Fatal(err)
	}

	business, ok := store.Business("Restaurante La Choza")
	if !ok {
		t.Fatal("business not loaded")
	}
	if len(business.Horarios) != 2 {
		t.Errorf("repeated record doubled the schedule: %v", business.Horarios)
	}
}

func TestParseJSONLEtiquetas(t *testing.T) {
	lines := strings.Join([]string{
		record("La etiqueta '**aventura**' se refiere a: **Actividades de adrenalina**. Ayuda a categorizar los atractivos."),
		record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Comuna tsáchila."),
		record("**Congoma** está asociado con las etiquetas: **cultura, etnia tsáchila**."),
	}, "\n")

	store, err := parseJSONLStream(strings.NewReader(lines), "test")
	if err != nil {
		t.Fatal(err)
	}

	tag, ok := store.Tag("aventura")
	if !ok {
		t.Fatal("tag not loaded")
	}
	if tag.Definicion != "Actividades de adrenalina" {
		t.Errorf("definicion = %q", tag.Definicion)
	}

	place, _ := store.Place("Congoma")
	if len(place.Etiquetas) != 2 {
		t.Errorf("etiquetas not attached: %v", place.Etiquetas)
	}
}

func TestParseJSONLInvalidLineIsFatal(t *testing.T) {
	lines := record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Comuna.") +
		"\nnot json at all\n"

	_, err := parseJSONLStream(strings.NewReader(lines), "test")
	if err == nil {
		t.Fatal("expected error for invalid JSON line")
	}
	if !errors.Is(err, ErrLoad) {
		t.Errorf("error does not wrap ErrLoad: %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error does not name the line: %v", err)
	}
}

func TestParseJSONLSkipsBlankAndUnmatchedLines(t *testing.T) {
	lines := "\n" + record("Respuesta libre sin plantilla reconocible.") + "\n\n"

	store, err := parseJSONLStream(strings.NewReader(lines), "test")
	if err != nil {
		t.Fatal(err)
	}
	if p, b, pa, tags := store.Counts(); p+b+pa+tags != 0 {
		t.Errorf("expected empty store, got %d/%d/%d/%d", p, b, pa, tags)
	}
}

func TestParseJSONLIdempotentReload(t *testing.T) {
	line := record("**Congoma** es un punto turístico ubicado en la parroquia Santo Domingo. Comuna tsáchila. " +
		"Las actividades disponibles incluyen: Danza. ")
	lines := line + "\n" + line + "\n"

	store, err := parseJSONLStream(strings.NewReader(lines), "test")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(store.PlaceNames()); got != 1 {
		t.Errorf("duplicate record created %d entries", got)
	}
}

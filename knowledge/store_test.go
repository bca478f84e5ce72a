package knowledge

import (
	"testing"
)

func testStore() *Store {
	s := newStore()

	s.addParish(Parish{
		Nombre:      "Luz de América",
		Descripcion: "su producción agrícola y ríos cercanos",
		Poblacion:   "12000",
		Temperatura: "24",
	})

	s.addPlace(Place{
		Nombre:      "Malecón Luz de América",
		Parroquia:   "Luz de América",
		Descripcion: "paseo junto al río con áreas recreativas",
		Actividades: []Activity{
			{Nombre: "Ciclismo", Precio: "$5"},
			{Nombre: "Ciclismo", Precio: "$5"},
			{Nombre: "Senderismo"},
		},
		Etiquetas: []string{"naturaleza", "recreación"},
	})
	s.addPlace(Place{
		Nombre:      "Parque de la Juventud",
		Parroquia:   "Santo Domingo",
		Descripcion: "parque urbano con canchas deportivas",
		Etiquetas:   []string{"recreación"},
	})
	s.addPlace(Place{
		Nombre:      "Parque del Lago",
		Parroquia:   "Santo Domingo",
		Descripcion: "laguna artificial rodeada de senderos",
	})

	s.addBusiness(Business{
		Nombre:      "Restaurante La Choza",
		Descripcion: "comida típica tsáchila",
		Servicios:   []string{"restaurante", "parqueadero"},
		Horarios: []HorarioDia{
			{Dia: "Lunes", Rango: "08:00 - 17:00"},
			{Dia: "Martes", Rango: "08:00 - 17:00"},
		},
		Etiquetas: []string{"gastronomía"},
	})
	s.addBusiness(Business{
		Nombre:      "Agachaditos",
		Descripcion: "puestos de comida nocturna",
		Servicios:   []string{"comida rápida"},
	})

	s.addTag(TagDef{Nombre: "aventura", Definicion: "Actividades de adrenalina y deporte extremo"})
	s.addTag(TagDef{Nombre: "naturaleza", Definicion: "Entornos naturales y paisajes"})

	return s
}

func TestAddPlaceMergesDuplicates(t *testing.T) {
	s := newStore()
	s.addPlace(Place{Nombre: "Congoma", Parroquia: "Santo Domingo"})
	s.addPlace(Place{
		Nombre:      "Congoma",
		Descripcion: "comuna tsáchila",
		Actividades: []Activity{{Nombre: "Danza"}},
		Etiquetas:   []string{"cultura"},
	})
	s.addPlace(Place{Nombre: "Congoma", Etiquetas: []string{"Cultura"}})

	if got := len(s.placeNames); got != 1 {
		t.Fatalf("expected 1 place name, got %d", got)
	}
	place, ok := s.Place("Congoma")
	if !ok {
		t.Fatal("place not found after merge")
	}
	if place.Parroquia != "Santo Domingo" {
		t.Errorf("parroquia lost in merge: %q", place.Parroquia)
	}
	if place.Descripcion != "comuna tsáchila" {
		t.Errorf("descripcion not merged: %q", place.Descripcion)
	}
	if len(place.Actividades) != 1 {
		t.Errorf("expected 1 actividad, got %d", len(place.Actividades))
	}
	if len(place.Etiquetas) != 1 {
		t.Errorf("expected case-insensitive tag dedupe, got %v", place.Etiquetas)
	}
}

func TestAddBusinessMergesWithoutDuplicates(t *testing.T) {
	s := newStore()
	b := Business{
		Nombre:      "Restaurante La Choza",
		Descripcion: "comida típica tsáchila",
		Servicios:   []string{"restaurante", "parqueadero"},
		Horarios:    []HorarioDia{{Dia: "Lunes", Rango: "08:00 - 17:00"}},
		Etiquetas:   []string{"gastronomía"},
	}
	s.addBusiness(b)
	s.addBusiness(b)

	got, ok := s.Business("Restaurante La Choza")
	if !ok {
		t.Fatal("business not found after merge")
	}
	if len(got.Servicios) != 2 {
		t.Errorf("servicios duplicated: %v", got.Servicios)
	}
	if len(got.Horarios) != 1 {
		t.Errorf("horarios duplicated: %v", got.Horarios)
	}
	if len(got.Etiquetas) != 1 {
		t.Errorf("etiquetas duplicated: %v", got.Etiquetas)
	}

	// The first recorded range per day wins.
	s.addBusiness(Business{
		Nombre:   "Restaurante La Choza",
		Horarios: []HorarioDia{{Dia: "Lunes", Rango: "10:00 - 20:00"}, {Dia: "Martes", Rango: "08:00 - 17:00"}},
	})
	got, _ = s.Business("Restaurante La Choza")
	if len(got.Horarios) != 2 {
		t.Fatalf("horarios = %v", got.Horarios)
	}
	if got.Horarios[0].Rango != "08:00 - 17:00" {
		t.Errorf("first range replaced: %+v", got.Horarios[0])
	}
}

func TestLinkParishCreatesStub(t *testing.T) {
	s := newStore()
	s.addPlace(Place{Nombre: "Cascada del Diablo", Parroquia: "Alluriquín"})

	parish, ok := s.Parish("Alluriquín")
	if !ok {
		t.Fatal("stub parish not created")
	}
	if parish.Descripcion != NotAvailable {
		t.Errorf("stub descripcion = %q, want %q", parish.Descripcion, NotAvailable)
	}
	if len(parish.Lugares) != 1 || parish.Lugares[0] != "Cascada del Diablo" {
		t.Errorf("back-reference missing: %v", parish.Lugares)
	}

	// A later full description keeps the accumulated place list.
	s.addParish(Parish{Nombre: "Alluriquín", Descripcion: "tierra de la melcocha", Poblacion: "9000", Temperatura: "22"})
	parish, _ = s.Parish("Alluriquín")
	if parish.Descripcion != "tierra de la melcocha" {
		t.Errorf("descripcion not updated: %q", parish.Descripcion)
	}
	if len(parish.Lugares) != 1 {
		t.Errorf("place list lost on update: %v", parish.Lugares)
	}

	// Linking the same place again must not duplicate it.
	s.addPlace(Place{Nombre: "Cascada del Diablo", Parroquia: "Alluriquín"})
	parish, _ = s.Parish("Alluriquín")
	if len(parish.Lugares) != 1 {
		t.Errorf("duplicate back-reference: %v", parish.Lugares)
	}
}

func TestAllNamesOrderAndCopy(t *testing.T) {
	s := testStore()

	names := s.AllNames()
	want := []string{
		"Malecón Luz de América",
		"Parque de la Juventud",
		"Parque del Lago",
		"Restaurante La Choza",
		"Agachaditos",
		"Luz de América",
		"Santo Domingo",
		"aventura",
		"naturaleza",
	}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d: %v", len(names), len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	names[0] = "mutated"
	if s.AllNames()[0] != "Malecón Luz de América" {
		t.Error("AllNames returned shared backing slice")
	}
}

func TestDefaultsForMissingFields(t *testing.T) {
	s := newStore()
	s.addPlace(Place{Nombre: "Sin Datos"})
	s.addBusiness(Business{Nombre: "Local Sin Datos"})
	s.addTag(TagDef{Nombre: "vacía"})

	if p, _ := s.Place("Sin Datos"); p.Descripcion != NotAvailable {
		t.Errorf("place descripcion = %q", p.Descripcion)
	}
	if b, _ := s.Business("Local Sin Datos"); b.Descripcion != NotAvailable {
		t.Errorf("business descripcion = %q", b.Descripcion)
	}
	if tag, _ := s.Tag("vacía"); tag.Definicion != NotAvailable {
		t.Errorf("tag definicion = %q", tag.Definicion)
	}
}

func TestCounts(t *testing.T) {
	s := testStore()
	places, businesses, parishes, tags := s.Counts()
	if places != 3 || businesses != 2 || parishes != 2 || tags != 2 {
		t.Errorf("Counts() = %d, %d, %d, %d", places, businesses, parishes, tags)
	}
}

// Package knowledge holds the in-memory tourism knowledge base for Santo
// Domingo de los Tsáchilas and the resolution pipeline that answers user
// queries against it: entity store, entity resolver, intent classifier and
// response generator. The store is built once at startup and is read-only
// afterwards; a rebuild produces a new Store that callers swap atomically.
package knowledge

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// NotAvailable is the sentinel shown for optional fields missing in the
// source data.
const NotAvailable = "No disponible"

// ErrLoad wraps any failure to build a store from a source. Startup must not
// proceed with a partially populated store.
var ErrLoad = errors.New("knowledge: load failed")

type loadError struct {
	source string
	err    error
}

func (e *loadError) Error() string {
	return fmt.Sprintf("knowledge: loading from %s: %v", e.source, e.err)
}

func (e *loadError) Unwrap() error { return ErrLoad }

func newLoadError(source string, err error) error {
	return &loadError{source: source, err: err}
}

// Activity is one offering at a tourist place. Precio is free text and may
// be empty when the source did not record a price.
type Activity struct {
	Nombre string
	Precio string
}

// Place is a tourist point of interest, keyed by its display name.
type Place struct {
	Nombre      string
	Parroquia   string
	Descripcion string
	Actividades []Activity
	Etiquetas   []string
}

// HorarioDia is one weekday entry of a business's opening hours. Kept as an
// ordered slice so formatted replies are deterministic.
type HorarioDia struct {
	Dia   string
	Rango string
}

// Business is a commercial tourism service provider (local turístico).
type Business struct {
	Nombre      string
	Descripcion string
	Servicios   []string
	Horarios    []HorarioDia
	Etiquetas   []string
}

// Parish is an administrative subdivision. Lugares lists the names of the
// places located within it, maintained while places are added.
type Parish struct {
	Nombre      string
	Descripcion string
	Poblacion   string
	Temperatura string
	Lugares     []string
}

// TagDef is a categorical label with a human-readable definition.
type TagDef struct {
	Nombre     string
	Definicion string
}

// Store indexes the four entity collections by display name. It is not safe
// for mutation after load; all exported methods are read-only.
type Store struct {
	places     map[string]*Place
	businesses map[string]*Business
	parishes   map[string]*Parish
	tags       map[string]*TagDef

	placeNames    []string
	businessNames []string
	parishNames   []string
	tagNames      []string
}

func newStore() *Store {
	return &Store{
		places:     make(map[string]*Place),
		businesses: make(map[string]*Business),
		parishes:   make(map[string]*Parish),
		tags:       make(map[string]*TagDef),
	}
}

func (s *Store) knownElsewhere(name, category string) {
	if _, ok := s.places[name]; ok && category != "lugar" {
		slog.Warn("entity name collides across categories", "name", name, "category", category, "existing", "lugar")
	}
	if _, ok := s.businesses[name]; ok && category != "local" {
		slog.Warn("entity name collides across categories", "name", name, "category", category, "existing", "local")
	}
	if _, ok := s.parishes[name]; ok && category != "parroquia" {
		slog.Warn("entity name collides across categories", "name", name, "category", category, "existing", "parroquia")
	}
	if _, ok := s.tags[name]; ok && category != "etiqueta" {
		slog.Warn("entity name collides across categories", "name", name, "category", category, "existing", "etiqueta")
	}
}

func (s *Store) addPlace(p Place) {
	if p.Nombre == "" {
		return
	}
	if p.Descripcion == "" {
		p.Descripcion = NotAvailable
	}
	s.knownElsewhere(p.Nombre, "lugar")
	if existing, ok := s.places[p.Nombre]; ok {
		existing.merge(&p)
	} else {
		cp := p
		s.places[p.Nombre] = &cp
		s.placeNames = append(s.placeNames, p.Nombre)
	}
	if p.Parroquia != "" {
		s.linkParish(p.Parroquia, p.Nombre)
	}
}

func (p *Place) merge(in *Place) {
	if in.Parroquia != "" {
		p.Parroquia = in.Parroquia
	}
	if in.Descripcion != "" && in.Descripcion != NotAvailable {
		p.Descripcion = in.Descripcion
	}
	if len(in.Actividades) > 0 {
		p.Actividades = append(p.Actividades, in.Actividades...)
	}
	for _, tag := range in.Etiquetas {
		if !containsFold(p.Etiquetas, tag) {
			p.Etiquetas = append(p.Etiquetas, tag)
		}
	}
}

// linkParish keeps the parish back-reference list in sync with the places
// that declare it as parent. Creates a stub parish when the source never
// described it directly.
func (s *Store) linkParish(parish, place string) {
	pa, ok := s.parishes[parish]
	if !ok {
		pa = &Parish{
			Nombre:      parish,
			Descripcion: NotAvailable,
			Poblacion:   NotAvailable,
			Temperatura: NotAvailable,
		}
		s.parishes[parish] = pa
		s.parishNames = append(s.parishNames, parish)
	}
	for _, known := range pa.Lugares {
		if known == place {
			return
		}
	}
	pa.Lugares = append(pa.Lugares, place)
}

func (s *Store) addBusiness(b Business) {
	if b.Nombre == "" {
		return
	}
	if b.Descripcion == "" {
		b.Descripcion = NotAvailable
	}
	s.knownElsewhere(b.Nombre, "local")
	if existing, ok := s.businesses[b.Nombre]; ok {
		if b.Descripcion != NotAvailable {
			existing.Descripcion = b.Descripcion
		}
		existing.addServicios(b.Servicios)
		existing.addHorarios(b.Horarios)
		for _, tag := range b.Etiquetas {
			if !containsFold(existing.Etiquetas, tag) {
				existing.Etiquetas = append(existing.Etiquetas, tag)
			}
		}
		return
	}
	cp := b
	s.businesses[b.Nombre] = &cp
	s.businessNames = append(s.businessNames, b.Nombre)
}

// addServicios appends services not already listed; the first occurrence
// wins, so re-ingesting a record cannot duplicate the list.
func (b *Business) addServicios(in []string) {
	for _, s := range in {
		if !containsFold(b.Servicios, s) {
			b.Servicios = append(b.Servicios, s)
		}
	}
}

// addHorarios appends entries for weekdays not yet present, keeping the first
// recorded range per day.
func (b *Business) addHorarios(in []HorarioDia) {
	for _, h := range in {
		known := false
		for _, have := range b.Horarios {
			if strings.EqualFold(have.Dia, h.Dia) {
				known = true
				break
			}
		}
		if !known {
			b.Horarios = append(b.Horarios, h)
		}
	}
}

func (s *Store) addParish(p Parish) {
	if p.Nombre == "" {
		return
	}
	if p.Descripcion == "" {
		p.Descripcion = NotAvailable
	}
	if p.Poblacion == "" {
		p.Poblacion = NotAvailable
	}
	if p.Temperatura == "" {
		p.Temperatura = NotAvailable
	}
	s.knownElsewhere(p.Nombre, "parroquia")
	if existing, ok := s.parishes[p.Nombre]; ok {
		if p.Descripcion != NotAvailable {
			existing.Descripcion = p.Descripcion
		}
		if p.Poblacion != NotAvailable {
			existing.Poblacion = p.Poblacion
		}
		if p.Temperatura != NotAvailable {
			existing.Temperatura = p.Temperatura
		}
		return
	}
	cp := p
	s.parishes[p.Nombre] = &cp
	s.parishNames = append(s.parishNames, p.Nombre)
}

func (s *Store) addTag(t TagDef) {
	if t.Nombre == "" {
		return
	}
	if t.Definicion == "" {
		t.Definicion = NotAvailable
	}
	s.knownElsewhere(t.Nombre, "etiqueta")
	if _, ok := s.tags[t.Nombre]; ok {
		return
	}
	cp := t
	s.tags[t.Nombre] = &cp
	s.tagNames = append(s.tagNames, t.Nombre)
}

// Place looks a place up by exact (case-sensitive) name.
func (s *Store) Place(name string) (*Place, bool) {
	p, ok := s.places[name]
	return p, ok
}

func (s *Store) Business(name string) (*Business, bool) {
	b, ok := s.businesses[name]
	return b, ok
}

func (s *Store) Parish(name string) (*Parish, bool) {
	p, ok := s.parishes[name]
	return p, ok
}

func (s *Store) Tag(name string) (*TagDef, bool) {
	t, ok := s.tags[name]
	return t, ok
}

// AllNames returns every known name across the four collections, in category
// order (places, businesses, parishes, tags) and insertion order within each.
// The slice is a fresh copy on every call.
func (s *Store) AllNames() []string {
	names := make([]string, 0, len(s.placeNames)+len(s.businessNames)+len(s.parishNames)+len(s.tagNames))
	names = append(names, s.placeNames...)
	names = append(names, s.businessNames...)
	names = append(names, s.parishNames...)
	names = append(names, s.tagNames...)
	return names
}

// PlaceNames returns the place names in insertion order.
func (s *Store) PlaceNames() []string {
	return append([]string(nil), s.placeNames...)
}

// Places returns all places in insertion order.
func (s *Store) Places() []*Place {
	out := make([]*Place, 0, len(s.placeNames))
	for _, name := range s.placeNames {
		out = append(out, s.places[name])
	}
	return out
}

// Businesses returns all locales in insertion order.
func (s *Store) Businesses() []*Business {
	out := make([]*Business, 0, len(s.businessNames))
	for _, name := range s.businessNames {
		out = append(out, s.businesses[name])
	}
	return out
}

// Parishes returns all parishes in insertion order.
func (s *Store) Parishes() []*Parish {
	out := make([]*Parish, 0, len(s.parishNames))
	for _, name := range s.parishNames {
		out = append(out, s.parishes[name])
	}
	return out
}

// TagDefs returns all tag definitions in insertion order.
func (s *Store) TagDefs() []*TagDef {
	out := make([]*TagDef, 0, len(s.tagNames))
	for _, name := range s.tagNames {
		out = append(out, s.tags[name])
	}
	return out
}

// Counts reports collection sizes for health and stats endpoints.
func (s *Store) Counts() (places, businesses, parishes, tags int) {
	return len(s.places), len(s.businesses), len(s.parishes), len(s.tags)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

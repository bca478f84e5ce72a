package knowledge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// The JSONL corpus encodes the knowledge base as chat fine-tuning records:
// one JSON object per line with a "messages" array, where the assistant turn
// carries the entity name between paired ** markers and its attributes in
// fixed Spanish sentence templates. These expressions mirror those templates.
var (
	puntoRe       = regexp.MustCompile(`\*\*(.+?)\*\* es un punto tur\S+ ubicado en la parroquia ([^.]+)\.\s*(.*)`)
	ubicadoEnRe   = regexp.MustCompile(`\*\*(.+?)\*\* se encuentra en la parroquia \*\*(.+?)\*\*`)
	actividadesRe = regexp.MustCompile(`Las actividades disponibles incluyen: (.*?)\.(?:\s|$)`)
	etiquetadoRe  = regexp.MustCompile(`Este lugar está categorizado como: (.*?)\.(?:\s|$)`)

	parroquiaRe   = regexp.MustCompile(`\*\*(.+?)\*\* es una parroquia`)
	caracterizaRe = regexp.MustCompile(`se caracteriza por: (.+?)(?:\.\s|\.$|$)`)
	poblacionRe   = regexp.MustCompile(`población aproximada de (.+?) habitantes`)
	temperaturaRe = regexp.MustCompile(`temperatura promedio de (.+?)\s*°C`)

	localRe     = regexp.MustCompile(`\*\*(.+?)\*\* es un local tur\S+(?: en Santo Domingo de los Tsáchilas)?(?: que)? se describe como: '(.+?)'`)
	serviciosRe = regexp.MustCompile(`Entre sus servicios se encuentran: \*\*(.+?)\*\*`)
	horarioRe   = regexp.MustCompile(`El horario de atención de \*\*(.+?)\*\* es: \*\*(.+?)\*\*`)

	etiquetaDefRe = regexp.MustCompile(`La etiqueta '\*\*(.+?)\*\*' se refiere a: \*?\*?(.+?)\*?\*?\.(?:\s|$)`)
	asociadoRe    = regexp.MustCompile(`\*\*(.+?)\*\* está asociado con las etiquetas: \*\*(.+?)\*\*`)

	actividadPrecioRe = regexp.MustCompile(`^(.*?)\s*\((\$.+?)\)$`)
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRecord struct {
	Messages []chatMessage `json:"messages"`
}

// LoadJSONL builds a store from a line-delimited conversational corpus. Any
// line that is not valid JSON is fatal for the whole load.
func LoadJSONL(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newLoadError(path, err)
	}
	defer f.Close()

	store, err := parseJSONLStream(f, path)
	if err != nil {
		return nil, err
	}

	p, b, pa, t := store.Counts()
	slog.Info("knowledge base loaded from jsonl",
		"path", path, "lugares", p, "locales", b, "parroquias", pa, "etiquetas", t)

	return store, nil
}

// LoadJSONLFallback tries each path in order and loads the first one that
// exists. All paths missing or the chosen file failing to parse is a load
// error.
func LoadJSONLFallback(paths []string) (*Store, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadJSONL(path)
	}
	return nil, newLoadError("jsonl", fmt.Errorf("no data file found in %v", paths))
}

func parseJSONLStream(r io.Reader, source string) (*Store, error) {
	store := newStore()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record chatRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, newLoadError(source, fmt.Errorf("invalid JSON on line %d: %w", lineNo, err))
		}

		for _, msg := range record.Messages {
			if msg.Role == "assistant" {
				store.ingestAssistantMessage(msg.Content)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, newLoadError(source, err)
	}

	return store, nil
}

// ingestAssistantMessage routes one assistant turn through the sentence
// templates, most specific first. Messages that match no template are
// ignored; the corpus also contains free-form filler answers.
func (s *Store) ingestAssistantMessage(content string) {
	switch {
	case puntoRe.MatchString(content):
		s.ingestPunto(content)
	case ubicadoEnRe.MatchString(content):
		m := ubicadoEnRe.FindStringSubmatch(content)
		s.addPlace(Place{Nombre: strings.TrimSpace(m[1]), Parroquia: strings.TrimSpace(m[2])})
	case parroquiaRe.MatchString(content):
		s.ingestParroquia(content)
	case localRe.MatchString(content):
		s.ingestLocal(content)
	case horarioRe.MatchString(content):
		s.ingestHorario(content)
	case etiquetaDefRe.MatchString(content):
		m := etiquetaDefRe.FindStringSubmatch(content)
		s.addTag(TagDef{Nombre: strings.TrimSpace(m[1]), Definicion: strings.TrimSpace(m[2])})
	case asociadoRe.MatchString(content):
		s.ingestEtiquetasAsociadas(content)
	}
}

func (s *Store) ingestPunto(content string) {
	m := puntoRe.FindStringSubmatch(content)
	place := Place{
		Nombre:    strings.TrimSpace(m[1]),
		Parroquia: strings.TrimSpace(m[2]),
	}

	desc := strings.TrimSpace(m[3])
	for _, marker := range []string{" La parroquia", " Este lugar está categorizado", " Las actividades disponibles"} {
		if idx := strings.Index(desc, marker); idx >= 0 {
			desc = strings.TrimSpace(desc[:idx])
		}
	}
	place.Descripcion = strings.TrimSuffix(desc, ".")

	if am := actividadesRe.FindStringSubmatch(content); am != nil {
		place.Actividades = parseActividades(am[1])
	}
	if em := etiquetadoRe.FindStringSubmatch(content); em != nil {
		place.Etiquetas = splitList(em[1])
	}

	s.addPlace(place)
}

// parseActividades splits "Ciclismo ($5), Senderismo" into activity records,
// pulling the optional price out of the trailing parenthesis.
func parseActividades(raw string) []Activity {
	var acts []Activity
	for _, item := range splitList(raw) {
		if m := actividadPrecioRe.FindStringSubmatch(item); m != nil {
			acts = append(acts, Activity{Nombre: strings.TrimSpace(m[1]), Precio: strings.TrimSpace(m[2])})
			continue
		}
		acts = append(acts, Activity{Nombre: item})
	}
	return acts
}

func (s *Store) ingestParroquia(content string) {
	m := parroquiaRe.FindStringSubmatch(content)
	parish := Parish{Nombre: strings.TrimSpace(m[1])}

	if dm := caracterizaRe.FindStringSubmatch(content); dm != nil {
		parish.Descripcion = strings.TrimSpace(dm[1])
	}
	if pm := poblacionRe.FindStringSubmatch(content); pm != nil {
		parish.Poblacion = strings.TrimSpace(pm[1])
	}
	if tm := temperaturaRe.FindStringSubmatch(content); tm != nil {
		parish.Temperatura = strings.TrimSpace(tm[1])
	}

	s.addParish(parish)
}

func (s *Store) ingestLocal(content string) {
	m := localRe.FindStringSubmatch(content)
	business := Business{
		Nombre:      strings.TrimSpace(m[1]),
		Descripcion: strings.TrimSpace(m[2]),
	}

	if sm := serviciosRe.FindStringSubmatch(content); sm != nil {
		business.Servicios = splitList(sm[1])
	}

	s.addBusiness(business)
}

func (s *Store) ingestHorario(content string) {
	m := horarioRe.FindStringSubmatch(content)
	name := strings.TrimSpace(m[1])

	var horarios []HorarioDia
	for _, pair := range strings.Split(m[2], ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		dia := strings.TrimSpace(parts[0])
		rango := strings.TrimSpace(parts[1])
		if dia == "" || rango == "" {
			continue
		}
		horarios = append(horarios, HorarioDia{Dia: dia, Rango: rango})
	}
	if len(horarios) == 0 {
		return
	}

	if existing, ok := s.businesses[name]; ok {
		existing.addHorarios(horarios)
		return
	}
	s.addBusiness(Business{Nombre: name, Horarios: horarios})
}

// ingestEtiquetasAsociadas attaches tag names to whichever known entity the
// line refers to. The corpus uses the same sentence for places and locales;
// unknown names default to a place stub, matching the original loader.
func (s *Store) ingestEtiquetasAsociadas(content string) {
	m := asociadoRe.FindStringSubmatch(content)
	name := strings.TrimSpace(m[1])
	tags := splitList(m[2])

	if place, ok := s.places[name]; ok {
		for _, tag := range tags {
			if !containsFold(place.Etiquetas, tag) {
				place.Etiquetas = append(place.Etiquetas, tag)
			}
		}
		return
	}
	if business, ok := s.businesses[name]; ok {
		for _, tag := range tags {
			if !containsFold(business.Etiquetas, tag) {
				business.Etiquetas = append(business.Etiquetas, tag)
			}
		}
		return
	}
	s.addPlace(Place{Nombre: name, Etiquetas: tags})
}

func splitList(raw string) []string {
	raw = strings.ReplaceAll(raw, ";", ",")
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// Reply is a generated answer. Deferred marks questions the knowledge base
// cannot answer on its own; the caller hands those to a collaborator. Lodging
// flags deferred questions about accommodation, which go to the web searcher
// instead of the language model.
type Reply struct {
	Text     string
	Intent   Intent
	Deferred bool
	Lodging  bool
}

var lodgingKeywords = []string{"hotel", "hoteles", "hospedaje", "alojamiento", "dónde dormir"}

// Responder turns user messages into Spanish answers rendered from the
// knowledge base. It owns the resolver and classifier it consults.
type Responder struct {
	store      *Store
	resolver   *Resolver
	classifier *Classifier
}

func NewResponder(store *Store) *Responder {
	resolver := NewResolver(store)
	return &Responder{
		store:      store,
		resolver:   resolver,
		classifier: NewClassifier(resolver),
	}
}

func (r *Responder) Resolver() *Resolver { return r.resolver }

// Store exposes the snapshot this responder answers from.
func (r *Responder) Store() *Store { return r.store }

// Respond generates the reply for one message. Ambiguity wins over intent:
// when the text matches several entities too closely, the user is asked to
// choose before any intent-specific answer is attempted.
func (r *Responder) Respond(text string) Reply {
	intent := r.classifier.Classify(text)
	ref := r.resolver.Resolve(text)

	if ref.IsAmbiguous() {
		return Reply{Text: renderAmbiguous(ref.Candidates), Intent: intent}
	}

	switch intent {
	case IntentSaludo:
		return Reply{Text: saludoText, Intent: intent}
	case IntentAgradecimiento:
		return Reply{Text: agradecimientoText, Intent: intent}
	case IntentDespedida:
		return Reply{Text: despedidaText, Intent: intent}
	case IntentInformacionLugar:
		return r.respondInformacion(text, ref)
	case IntentParroquia:
		return Reply{Text: r.renderParroquiaResumen(ref), Intent: intent}
	case IntentActividades:
		return Reply{Text: r.renderActividades(ref), Intent: intent}
	case IntentServiciosLocal:
		return Reply{Text: r.renderServicios(ref), Intent: intent}
	case IntentEtiqueta:
		return Reply{Text: r.renderEtiqueta(ref), Intent: intent}
	case IntentHorario:
		return Reply{Text: r.renderHorario(ref), Intent: intent}
	case IntentListarEtiquetas:
		return Reply{Text: r.renderListaEtiquetas(ref), Intent: intent}
	default:
		return r.deferred(menuText, IntentDesconocida, text)
	}
}

// deferred builds a deferred reply, sniffing the text for lodging vocabulary so
// the caller can pick the right collaborator.
func (r *Responder) deferred(fallback string, intent Intent, text string) Reply {
	lower := strings.ToLower(text)
	lodging := false
	for _, kw := range lodgingKeywords {
		if strings.Contains(lower, kw) {
			lodging = true
			break
		}
	}
	return Reply{Text: fallback, Intent: intent, Deferred: true, Lodging: lodging}
}

func (r *Responder) respondInformacion(text string, ref Reference) Reply {
	switch ref.Kind {
	case KindPlace:
		place, _ := r.store.Place(ref.Name)
		return Reply{Text: renderLugar(place), Intent: IntentInformacionLugar}
	case KindBusiness:
		business, _ := r.store.Business(ref.Name)
		return Reply{Text: renderLocal(business), Intent: IntentInformacionLugar}
	case KindParish:
		parish, _ := r.store.Parish(ref.Name)
		return Reply{Text: renderParroquia(parish), Intent: IntentInformacionLugar}
	case KindTag:
		tag, _ := r.store.Tag(ref.Name)
		return Reply{Text: renderEtiquetaDetalle(tag), Intent: IntentInformacionLugar}
	default:
		return r.deferred(noEncontradoText, IntentInformacionLugar, text)
	}
}

func renderAmbiguous(candidates []string) string {
	var b strings.Builder
	b.WriteString("¡Perfecto! 🎯 Veo que tenemos varias opciones fantásticas relacionadas con tu búsqueda:\n\n")
	for i, name := range candidates {
		fmt.Fprintf(&b, "   %d. %s\n", i+1, name)
	}
	b.WriteString("\n✨ Cada uno de estos lugares tiene características únicas y especiales. ¿Podrías decirme específicamente sobre cuál te gustaría saber más?\n\n")
	b.WriteString("¡Estoy emocionado de contarte todos los detalles! 😊")
	return b.String()
}

func renderLugar(place *Place) string {
	parroquia := place.Parroquia
	if parroquia == "" {
		parroquia = "desconocida"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "¡Excelente elección! 🌟 **%s** es un hermoso punto turístico ubicado en la parroquia **%s**.\n\n", place.Nombre, parroquia)
	fmt.Fprintf(&b, "📍 **Descripción:** %s\n\n", place.Descripcion)

	if lines := actividadesUnicas(place.Actividades); len(lines) > 0 {
		b.WriteString("🎯 **Actividades disponibles:**\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	}

	if etiquetas := nonEmpty(place.Etiquetas); len(etiquetas) > 0 {
		fmt.Fprintf(&b, "🏷️ **Características:** %s\n\n", strings.Join(etiquetas, ", "))
	}

	b.WriteString("✨ ¡Es un lugar que definitivamente no te puedes perder! Te recomiendo visitarlo para disfrutar de una experiencia única en Santo Domingo de los Tsáchilas.\n\n")
	b.WriteString("¿Te gustaría saber más sobre las actividades específicas que puedes realizar aquí, o necesitas información sobre cómo llegar? 😊")
	return b.String()
}

func renderLocal(business *Business) string {
	var b strings.Builder
	fmt.Fprintf(&b, "¡Perfecto! 🏪 Te cuento sobre **%s**, un fantástico local turístico.\n\n", business.Nombre)
	fmt.Fprintf(&b, "📝 **Descripción:** %s\n\n", business.Descripcion)

	if servicios := nonEmpty(business.Servicios); len(servicios) > 0 {
		b.WriteString("🛎️ **Servicios que ofrece:**\n")
		for _, s := range servicios {
			fmt.Fprintf(&b, "   • %s\n", s)
		}
		b.WriteString("\n")
	}

	if len(business.Horarios) > 0 {
		b.WriteString("🕐 **Horarios de atención:**\n")
		for _, h := range business.Horarios {
			if strings.TrimSpace(h.Rango) == "" {
				continue
			}
			fmt.Fprintf(&b, "   • %s: %s\n", h.Dia, h.Rango)
		}
		b.WriteString("\n")
	}

	if etiquetas := nonEmpty(business.Etiquetas); len(etiquetas) > 0 {
		fmt.Fprintf(&b, "🏷️ **Características:** %s\n\n", strings.Join(etiquetas, ", "))
	}

	b.WriteString("💡 ¡Te va a encantar este lugar! ¿Necesitas más detalles sobre algún servicio en particular? 😊")
	return b.String()
}

func renderParroquia(parish *Parish) string {
	var b strings.Builder
	fmt.Fprintf(&b, "¡Qué buena elección! 🏘️ Te voy a contar sobre la hermosa parroquia **%s**.\n\n", parish.Nombre)
	fmt.Fprintf(&b, "🌿 **Características:** %s\n\n", parish.Descripcion)
	fmt.Fprintf(&b, "👥 **Población:** Aproximadamente **%s** habitantes\n", parish.Poblacion)
	fmt.Fprintf(&b, "🌡️ **Temperatura promedio:** **%s°C** (¡clima muy agradable!)\n\n", parish.Temperatura)

	if len(parish.Lugares) > 0 {
		b.WriteString("🎯 **Lugares turísticos que puedes visitar:**\n")
		for _, lugar := range parish.Lugares {
			fmt.Fprintf(&b, "   • %s\n", lugar)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("🔍 **Puntos turísticos:** Actualmente no tenemos registros específicos, pero ¡seguro hay lugares hermosos por descubrir!\n\n")
	}

	b.WriteString("✨ ¡Es una parroquia encantadora que definitivamente vale la pena visitar! ¿Te gustaría saber más sobre algún lugar específico de esta zona? 😊")
	return b.String()
}

func renderEtiquetaDetalle(tag *TagDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "¡Excelente pregunta! 🏷️ Te explico qué significa la etiqueta **'%s'**:\n\n", tag.Nombre)
	fmt.Fprintf(&b, "📖 **Definición:** %s\n\n", tag.Definicion)
	b.WriteString("💡 Esta etiqueta nos ayuda a categorizar y entender mejor los atractivos turísticos de Santo Domingo de los Tsáchilas. ")
	b.WriteString("¡Es muy útil para encontrar exactamente el tipo de experiencia que buscas!\n\n")
	b.WriteString("¿Te gustaría conocer qué lugares tienen esta característica? 😊")
	return b.String()
}

func (r *Responder) renderParroquiaResumen(ref Reference) string {
	if ref.Kind != KindParish {
		return "No encontré información detallada sobre esa parroquia. Asegúrate de escribir el nombre correctamente."
	}
	parish, ok := r.store.Parish(ref.Name)
	if !ok {
		return "No encontré información detallada sobre esa parroquia. Asegúrate de escribir el nombre correctamente."
	}

	puntos := "ninguno registrado."
	if len(parish.Lugares) > 0 {
		puntos = strings.Join(parish.Lugares, ", ")
	}
	return fmt.Sprintf("La parroquia **%s** se caracteriza por: %s. "+
		"Tiene una población aproximada de **%s** habitantes y su temperatura promedio es de **%s°C**. "+
		"Algunos puntos turísticos asociados son: %s. ¡Es un lugar encantador para visitar!",
		parish.Nombre, parish.Descripcion, parish.Poblacion, parish.Temperatura, puntos)
}

func (r *Responder) renderActividades(ref Reference) string {
	if ref.Kind == KindPlace {
		if place, ok := r.store.Place(ref.Name); ok && len(place.Actividades) > 0 {
			var b strings.Builder
			fmt.Fprintf(&b, "¡Fantástico! 🎯 En **%s** tienes muchas opciones emocionantes para disfrutar:\n\n", place.Nombre)
			b.WriteString("🎪 **Actividades disponibles:**\n")
			b.WriteString(strings.Join(actividadesUnicas(place.Actividades), "\n"))
			b.WriteString("\n\n✨ ¡Cada una de estas actividades te brindará una experiencia única! Te recomiendo planificar tu visita con tiempo para que puedas disfrutar al máximo.\n\n")
			b.WriteString("¿Te interesa alguna actividad en particular? ¡Puedo darte más detalles! 😊")
			return b.String()
		}
	}

	nombre := "ese lugar"
	if ref.Name != "" {
		nombre = ref.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🤔 Hmm, no tengo actividades específicas registradas para **%s** en este momento.\n\n", nombre)
	b.WriteString("💡 **Pero no te preocupes!** Esto puede significar que:\n")
	b.WriteString("   • Es un lugar perfecto para relajarse y disfrutar la naturaleza\n")
	b.WriteString("   • Hay actividades locales que se organizan espontáneamente\n")
	b.WriteString("   • Podrías preguntar sobre otro destino similar\n\n")
	b.WriteString("🗺️ ¿Te gustaría que te recomiende otros lugares con actividades específicas? 😊")
	return b.String()
}

func (r *Responder) renderServicios(ref Reference) string {
	if ref.Kind == KindBusiness {
		if business, ok := r.store.Business(ref.Name); ok {
			quoted := make([]string, 0, len(business.Servicios))
			for _, s := range business.Servicios {
				quoted = append(quoted, "'"+s+"'")
			}
			return fmt.Sprintf("El local turístico **'%s'** se describe como: *'%s'*. Ofrece los siguientes servicios: %s.",
				business.Nombre, business.Descripcion, strings.Join(quoted, ", "))
		}
	}
	return "No encontré información sobre los servicios de ese local. ¿Podrías especificar el nombre?"
}

func (r *Responder) renderEtiqueta(ref Reference) string {
	if ref.Kind == KindTag {
		if tag, ok := r.store.Tag(ref.Name); ok {
			return fmt.Sprintf("La etiqueta '**%s**' se refiere a: **%s**. Ayuda a categorizar y entender mejor los atractivos turísticos.",
				tag.Nombre, tag.Definicion)
		}
	}
	return "No encontré el significado de esa etiqueta. ¿Podrías confirmarla?"
}

func (r *Responder) renderHorario(ref Reference) string {
	if ref.Kind == KindBusiness {
		if business, ok := r.store.Business(ref.Name); ok {
			if len(business.Horarios) == 0 {
				return fmt.Sprintf("No se encontró información de horarios para **%s**.", business.Nombre)
			}
			pairs := make([]string, 0, len(business.Horarios))
			for _, h := range business.Horarios {
				pairs = append(pairs, h.Dia+": "+h.Rango)
			}
			return fmt.Sprintf("El horario de atención de **%s** es: **%s**.", business.Nombre, strings.Join(pairs, ", "))
		}
	}
	return "No encontré información de horarios para ese local. ¿Podrías especificar el nombre?"
}

// renderListaEtiquetas collects tags from both the place and the business
// carrying the resolved name, deduplicates and sorts them.
func (r *Responder) renderListaEtiquetas(ref Reference) string {
	if ref.Kind != KindPlace && ref.Kind != KindBusiness {
		return "Necesito saber de qué punto turístico o local quieres conocer las etiquetas."
	}

	var etiquetas []string
	if place, ok := r.store.Place(ref.Name); ok {
		etiquetas = append(etiquetas, place.Etiquetas...)
	}
	if business, ok := r.store.Business(ref.Name); ok {
		etiquetas = append(etiquetas, business.Etiquetas...)
	}

	seen := make(map[string]bool)
	var unicas []string
	for _, e := range etiquetas {
		if e = strings.TrimSpace(e); e == "" || seen[e] {
			continue
		}
		seen[e] = true
		unicas = append(unicas, e)
	}
	if len(unicas) == 0 {
		return fmt.Sprintf("No encontré etiquetas asociadas a **%s**.", ref.Name)
	}
	sort.Strings(unicas)
	return fmt.Sprintf("**%s** está asociado con las etiquetas: **%s**.", ref.Name, strings.Join(unicas, ", "))
}

// actividadesUnicas formats activities as bullet lines, keeping the first
// occurrence of each name and attaching the price unless it is empty or the
// "no especificado" placeholder.
func actividadesUnicas(acts []Activity) []string {
	seen := make(map[string]bool)
	var lines []string
	for _, act := range acts {
		if seen[act.Nombre] {
			continue
		}
		seen[act.Nombre] = true
		precio := strings.TrimSpace(act.Precio)
		if precio != "" && !strings.EqualFold(precio, "no especificado") {
			lines = append(lines, fmt.Sprintf("   • %s (💰 %s)", act.Nombre, precio))
		} else {
			lines = append(lines, "   • "+act.Nombre)
		}
	}
	return lines
}

func nonEmpty(list []string) []string {
	var out []string
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

const saludoText = "¡Hola! 👋 ¡Qué gusto saludarte! Soy tu asistente turístico personal de Santo Domingo de los Tsáchilas. 🌿\n\n" +
	"🗺️ Estoy aquí para ayudarte a descubrir los lugares más increíbles de nuestra hermosa provincia. Puedo contarte sobre:\n" +
	"   • 🏞️ Puntos turísticos imperdibles\n" +
	"   • 🏘️ Parroquias y sus características\n" +
	"   • 🎯 Actividades emocionantes\n" +
	"   • 🏪 Locales y sus servicios\n" +
	"   • 🕐 Horarios de atención\n\n" +
	"¿Sobre qué lugar o experiencia te gustaría saber? ¡Estoy emocionado de ayudarte! 😊"

const agradecimientoText = "¡De nada! 😊 Ha sido un placer ayudarte. \n\n" +
	"🌟 Me encanta poder compartir información sobre los hermosos lugares de Santo Domingo de los Tsáchilas. \n\n" +
	"🗺️ Recuerda que estoy aquí siempre que necesites más información sobre nuestros destinos turísticos, actividades, servicios o cualquier cosa que te ayude a planificar tu aventura.\n\n" +
	"¡Que disfrutes mucho tu experiencia! 🎉"

const despedidaText = "¡Hasta luego! 👋 Ha sido genial ayudarte hoy.\n\n" +
	"🌟 Espero que tengas una experiencia increíble explorando Santo Domingo de los Tsáchilas. ¡Hay tantos lugares hermosos esperándote!\n\n" +
	"🗺️ Recuerda que siempre puedes regresar cuando necesites más información turística. \n\n" +
	"¡Que tengas un día maravilloso y disfrutes al máximo tu aventura! 🎉✨"

const menuText = "🤔 ¡Hola! Me encantaría ayudarte, pero no estoy seguro de lo que buscas exactamente.\n\n" +
	"💡 **Puedo ayudarte con:**\n" +
	"   • 🏞️ Información sobre puntos turísticos\n" +
	"   • 🏘️ Detalles de parroquias\n" +
	"   • 🏪 Servicios de locales turísticos\n" +
	"   • 🎯 Actividades disponibles\n" +
	"   • 🏷️ Significado de etiquetas\n" +
	"   • 🕐 Horarios de atención\n\n" +
	"🗺️ ¿Podrías reformular tu pregunta o decirme específicamente qué te gustaría saber sobre Santo Domingo de los Tsáchilas? ¡Estoy aquí para ayudarte! 😊"

const noEncontradoText = "🤔 Hmm, no encontré información específica sobre ese lugar. ¡Pero no te preocupes! \n\n" +
	"💡 **Aquí tienes algunas opciones:**\n" +
	"   • Podrías intentar con un nombre más específico\n" +
	"   • Verificar la ortografía del lugar\n" +
	"   • Preguntarme sobre parroquias, actividades o servicios\n\n" +
	"🗺️ Estoy aquí para ayudarte a descubrir los maravillosos puntos turísticos, parroquias, locales, actividades, servicios, etiquetas y horarios de Santo Domingo de los Tsáchilas.\n\n" +
	"¿Qué te gustaría explorar? 😊"

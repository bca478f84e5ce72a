// Package searcher scrapes live lodging and general information from the web
// for questions the local knowledge base cannot answer. Results degrade
// gracefully: when no source responds, a small curated list of known hotels
// in Santo Domingo is returned instead of an error.
package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/Jhanira-Elizabeth/tursd-chat/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const maxListings = 3

// Listing is one lodging option with whatever fields the source exposed.
type Listing struct {
	Nombre      string `json:"nombre"`
	Precio      string `json:"precio,omitempty"`
	Rating      string `json:"rating,omitempty"`
	Descripcion string `json:"descripcion,omitempty"`
	Fuente      string `json:"fuente"`
}

// Searcher queries Booking.com and Google with a plain HTTP client. Base
// URLs are swappable for tests.
type Searcher struct {
	client      *http.Client
	city        string
	bookingBase string
	googleBase  string
}

func New(cfg config.Searcher) *Searcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	bookingBase := cfg.BookingBaseURL
	if bookingBase == "" {
		bookingBase = "https://www.booking.com"
	}
	googleBase := cfg.GoogleBaseURL
	if googleBase == "" {
		googleBase = "https://www.google.com"
	}
	return &Searcher{
		client:      &http.Client{Timeout: timeout},
		city:        cfg.City,
		bookingBase: bookingBase,
		googleBase:  googleBase,
	}
}

// Hoteles fetches lodging options, querying Booking and Google concurrently
// and preferring Booking results. It never fails: with both sources down the
// curated local list is returned.
func (s *Searcher) Hoteles(ctx context.Context) []Listing {
	var booking, google []Listing

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if booking, err = s.HotelesBooking(ctx); err != nil {
			slog.Warn("booking search failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if google, err = s.HotelesGoogle(ctx); err != nil {
			slog.Warn("google hotel search failed", "error", err)
		}
		return nil
	})
	_ = g.Wait()

	switch {
	case len(booking) > 0:
		return cap3(booking)
	case len(google) > 0:
		return cap3(google)
	default:
		return curatedHotels()
	}
}

// HotelesBooking scrapes the Booking.com search results page for the
// configured city.
func (s *Searcher) HotelesBooking(ctx context.Context) ([]Listing, error) {
	searchURL := fmt.Sprintf("%s/searchresults.html?ss=%s", s.bookingBase, url.QueryEscape(s.city))

	doc, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var listings []Listing
	doc.Find(`div[data-testid="property-card"]`).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		nombre := strings.TrimSpace(card.Find(`div[data-testid="title"]`).First().Text())
		if nombre == "" {
			return true
		}
		precio := strings.TrimSpace(card.Find(`span[data-testid="price-and-discounted-price"]`).First().Text())
		if precio == "" {
			precio = "Precio disponible al reservar"
		}
		rating := strings.TrimSpace(card.Find(`div[data-testid="review-score"]`).First().Text())
		if rating == "" {
			rating = "Sin calificación"
		}
		listings = append(listings, Listing{
			Nombre: nombre,
			Precio: precio,
			Rating: rating,
			Fuente: "Booking.com",
		})
		return len(listings) < maxListings
	})

	return listings, nil
}

// HotelesGoogle scrapes a Google results page for hotel mentions. Only
// titles containing "hotel" count as listings.
func (s *Searcher) HotelesGoogle(ctx context.Context) ([]Listing, error) {
	query := fmt.Sprintf("hoteles %s Ecuador precios", s.city)
	searchURL := fmt.Sprintf("%s/search?q=%s", s.googleBase, url.QueryEscape(query))

	doc, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	var listings []Listing
	doc.Find("div.g").EachWithBreak(func(_ int, result *goquery.Selection) bool {
		title := strings.TrimSpace(result.Find("h3").First().Text())
		if title == "" || !strings.Contains(strings.ToLower(title), "hotel") {
			return true
		}
		descripcion := strings.TrimSpace(result.Find("span.st").First().Text())
		if descripcion == "" {
			descripcion = "Hotel en Santo Domingo"
		} else if r := []rune(descripcion); len(r) > 100 {
			descripcion = string(r[:100]) + "..."
		}
		listings = append(listings, Listing{
			Nombre:      title,
			Descripcion: descripcion,
			Fuente:      "Google Search",
		})
		return len(listings) < maxListings
	})

	return listings, nil
}

// BuscarGeneral runs a Google search scoped to Santo Domingo and returns the
// joined result snippets, or an empty string when nothing substantial was
// found.
func (s *Searcher) BuscarGeneral(ctx context.Context, query string) (string, error) {
	scoped := query + " en Santo Domingo Ecuador"
	searchURL := fmt.Sprintf("%s/search?q=%s&hl=es", s.googleBase, url.QueryEscape(scoped))

	doc, err := s.fetch(ctx, searchURL)
	if err != nil {
		return "", err
	}

	var snippets []string
	doc.Find("span.st, div.VwiC3b, div.IsZOp").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 50 {
			snippets = append(snippets, text)
		}
		return len(snippets) < maxListings
	})

	if len(snippets) == 0 {
		slog.Warn("no search snippets found", "query", query)
		return "", nil
	}
	return strings.Join(snippets, "\n"), nil
}

func (s *Searcher) fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searcher: %s returned status %d", rawURL, resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func cap3(listings []Listing) []Listing {
	if len(listings) > maxListings {
		return listings[:maxListings]
	}
	return listings
}

// curatedHotels is the offline fallback with well-known hotels in the city.
func curatedHotels() []Listing {
	return []Listing{
		{
			Nombre:      "Hotel Toachi",
			Precio:      "Desde $45/noche",
			Descripcion: "Hotel céntrico en Santo Domingo de los Tsáchilas",
			Fuente:      "Datos locales",
		},
		{
			Nombre:      "Hotel Zaracay",
			Precio:      "Desde $60/noche",
			Descripcion: "Hotel con servicios completos y ubicación privilegiada",
			Fuente:      "Datos locales",
		},
	}
}

// FormatListings renders lodging options as a chat reply.
func FormatListings(listings []Listing) string {
	var b strings.Builder
	b.WriteString("🏨 Aquí tienes algunas opciones de hospedaje en Santo Domingo de los Tsáchilas:\n\n")
	for _, l := range listings {
		fmt.Fprintf(&b, "   • **%s**", l.Nombre)
		if l.Precio != "" {
			fmt.Fprintf(&b, " - %s", l.Precio)
		}
		if l.Rating != "" {
			fmt.Fprintf(&b, " (%s)", l.Rating)
		}
		b.WriteString("\n")
		if l.Descripcion != "" {
			fmt.Fprintf(&b, "     %s\n", l.Descripcion)
		}
		fmt.Fprintf(&b, "     Fuente: %s\n", l.Fuente)
	}
	b.WriteString("\n💡 Te recomiendo confirmar disponibilidad y precios antes de tu visita. ¿Necesitas algo más? 😊")
	return b.String()
}

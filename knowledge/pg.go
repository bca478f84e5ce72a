package knowledge

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Jhanira-Elizabeth/tursd-chat/models"
)

// LoadPostgres builds a store from the relational tourism schema. The whole
// load runs against one gorm session; any query error aborts the load so the
// caller can fall back to the JSONL corpus or refuse to start.
func LoadPostgres(ctx context.Context, connStr string) (*Store, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, newLoadError("postgres", err)
	}

	// The connection pool only lives for this load; the store is detached
	// from the database once built.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, newLoadError("postgres", err)
	}
	defer sqlDB.Close()

	return buildFromDB(db.WithContext(ctx))
}

func buildFromDB(db *gorm.DB) (*Store, error) {
	store := newStore()

	var parroquias []models.Parroquia
	if err := db.Where("estado = ?", true).Order("id").Find(&parroquias).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}
	parishByID := make(map[uint64]string, len(parroquias))
	for _, p := range parroquias {
		parishByID[p.ID] = p.Nombre
		store.addParish(Parish{
			Nombre:      p.Nombre,
			Descripcion: p.Descripcion,
			Poblacion:   p.Poblacion,
			Temperatura: p.TemperaturaPromedio,
		})
	}

	var tags []models.Tag
	if err := db.Order("id").Find(&tags).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}
	tagByID := make(map[uint64]string, len(tags))
	for _, t := range tags {
		tagByID[t.ID] = t.Nombre
		store.addTag(TagDef{Nombre: t.Nombre, Definicion: t.Definicion})
	}

	var lugares []models.LugarTuristico
	if err := db.Where("estado = ?", true).Order("id").Find(&lugares).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}

	var actividades []models.Actividad
	if err := db.Where("estado = ?", true).Order("id").Find(&actividades).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}
	actsByLugar := make(map[uint64][]Activity)
	for _, a := range actividades {
		actsByLugar[a.LugarID] = append(actsByLugar[a.LugarID], Activity{Nombre: a.Nombre, Precio: a.Precio})
	}

	var lugarTags []models.LugarTag
	if err := db.Find(&lugarTags).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}
	tagsByLugar := make(map[uint64][]string)
	for _, lt := range lugarTags {
		if name, ok := tagByID[lt.TagID]; ok {
			tagsByLugar[lt.LugarID] = append(tagsByLugar[lt.LugarID], name)
		}
	}

	for _, l := range lugares {
		place := Place{
			Nombre:      l.Nombre,
			Descripcion: l.Descripcion,
			Actividades: actsByLugar[l.ID],
			Etiquetas:   tagsByLugar[l.ID],
		}
		if l.ParroquiaID != nil {
			place.Parroquia = parishByID[*l.ParroquiaID]
		}
		store.addPlace(place)
	}

	var locales []models.LocalTuristico
	if err := db.Where("estado = ?", true).Order("id").Find(&locales).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}

	var servicios []models.Servicio
	if err := db.Order("id").Find(&servicios).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}
	serviciosByLocal := make(map[uint64][]string)
	for _, s := range servicios {
		serviciosByLocal[s.LocalID] = append(serviciosByLocal[s.LocalID], s.Nombre)
	}

	var horarios []models.Horario
	if err := db.Order("id").Find(&horarios).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}
	horariosByLocal := make(map[uint64][]HorarioDia)
	for _, h := range horarios {
		horariosByLocal[h.LocalID] = append(horariosByLocal[h.LocalID], HorarioDia{Dia: h.Dia, Rango: h.Rango})
	}

	var localTags []models.LocalTag
	if err := db.Find(&localTags).Error; err != nil {
		return nil, newLoadError("postgres", err)
	}
	tagsByLocal := make(map[uint64][]string)
	for _, lt := range localTags {
		if name, ok := tagByID[lt.TagID]; ok {
			tagsByLocal[lt.LocalID] = append(tagsByLocal[lt.LocalID], name)
		}
	}

	for _, l := range locales {
		store.addBusiness(Business{
			Nombre:      l.Nombre,
			Descripcion: l.Descripcion,
			Servicios:   serviciosByLocal[l.ID],
			Horarios:    horariosByLocal[l.ID],
			Etiquetas:   tagsByLocal[l.ID],
		})
	}

	p, b, pa, t := store.Counts()
	slog.Info("knowledge base loaded from postgres",
		"lugares", p, "locales", b, "parroquias", pa, "etiquetas", t)

	return store, nil
}

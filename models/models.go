package models

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Location struct {
	Lon, Lat float64
}

func NewGeoPoint(lng, lat float64) Location {
	return Location{
		Lon: lng,
		Lat: lat,
	}
}

func (g *Location) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case string:
		var err error
		data, err = hex.DecodeString(v)
		if err != nil {
			return err
		}
	case []byte:
		data = v
	default:
		return fmt.Errorf("expected string or []byte, got %T", value)
	}

	t, err := ewkb.Unmarshal(data)
	if err != nil {
		return err
	}

	if point, ok := t.(*geom.Point); ok {
		g.Lon = point.X()
		g.Lat = point.Y()

		return nil
	}

	return fmt.Errorf("expected Point, got %T", t)
}

func (loc Location) GormDataType() string {
	return "geometry"
}

func (loc Location) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return clause.Expr{
		SQL:  "ST_PointFromText(?)",
		Vars: []interface{}{fmt.Sprintf("POINT(%f %f)", loc.Lon, loc.Lat)},
	}
}

type Parroquia struct {
	ID                  uint64 `gorm:"primaryKey" json:"id"`
	Nombre              string `gorm:"uniqueIndex" json:"nombre"`
	Descripcion         string `json:"descripcion"`
	Poblacion           string `json:"poblacion"`
	TemperaturaPromedio string `json:"temperatura_promedio"`
	Estado              bool   `json:"estado"`
}

func (p *Parroquia) TableName() string {
	return "parroquias"
}

type LugarTuristico struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Nombre      string    `gorm:"uniqueIndex" json:"nombre"`
	Descripcion string    `json:"descripcion"`
	Direccion   string    `json:"direccion"`
	ParroquiaID *uint64   `json:"parroquia_id"`
	Ubicacion   *Location `json:"ubicacion,omitempty"`
	Estado      bool      `json:"estado"`
}

func (l *LugarTuristico) TableName() string {
	return "lugares_turisticos"
}

type Actividad struct {
	ID      uint64 `gorm:"primaryKey" json:"id"`
	LugarID uint64 `json:"lugar_id"`
	Nombre  string `json:"nombre"`
	Precio  string `json:"precio"`
	Estado  bool   `json:"estado"`
}

func (a *Actividad) TableName() string {
	return "actividades"
}

type LocalTuristico struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	Nombre      string `gorm:"uniqueIndex" json:"nombre"`
	Descripcion string `json:"descripcion"`
	Direccion   string `json:"direccion"`
	Estado      bool   `json:"estado"`
}

func (l *LocalTuristico) TableName() string {
	return "locales_turisticos"
}

type Servicio struct {
	ID      uint64 `gorm:"primaryKey" json:"id"`
	LocalID uint64 `json:"local_id"`
	Nombre  string `json:"nombre"`
}

func (s *Servicio) TableName() string {
	return "servicios"
}

// Horario is one weekday row of a local's opening hours.
type Horario struct {
	ID      uint64 `gorm:"primaryKey" json:"id"`
	LocalID uint64 `json:"local_id"`
	Dia     string `json:"dia"`
	Rango   string `json:"rango"`
}

func (h *Horario) TableName() string {
	return "horarios"
}

type Tag struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	Nombre     string `gorm:"uniqueIndex" json:"nombre"`
	Definicion string `json:"definicion"`
}

func (t *Tag) TableName() string {
	return "tags"
}

type LugarTag struct {
	LugarID uint64 `gorm:"primaryKey" json:"lugar_id"`
	TagID   uint64 `gorm:"primaryKey" json:"tag_id"`
}

func (LugarTag) TableName() string {
	return "lugar_tag"
}

type LocalTag struct {
	LocalID uint64 `gorm:"primaryKey" json:"local_id"`
	TagID   uint64 `gorm:"primaryKey" json:"tag_id"`
}

func (LocalTag) TableName() string {
	return "local_tag"
}

// Command seed loads the JSONL tourism corpus into postgres and announces
// the change so running agents reload their knowledge base. It is idempotent:
// entities are matched by name and child rows are replaced wholesale.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Jhanira-Elizabeth/tursd-chat/config"
	"github.com/Jhanira-Elizabeth/tursd-chat/knowledge"
	"github.com/Jhanira-Elizabeth/tursd-chat/models"
)

type ReloadEvent struct {
	Table string `json:"table"`
	Kind  string `json:"kind"`
}

func main() {
	corpus := flag.String("corpus", "", "path to a JSONL corpus; defaults to the configured fallback paths")
	flag.Parse()

	cfg := config.LoadConfig()

	paths := cfg.Knowledge.JSONLPaths
	if *corpus != "" {
		paths = []string{*corpus}
	}

	store, err := knowledge.LoadJSONLFallback(paths)
	if err != nil {
		log.Fatal("failed to load corpus:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Postgres.ConnStr()), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to postgres:", err)
	}

	if err := db.AutoMigrate(
		&models.Parroquia{},
		&models.LugarTuristico{},
		&models.Actividad{},
		&models.LocalTuristico{},
		&models.Servicio{},
		&models.Horario{},
		&models.Tag{},
		&models.LugarTag{},
		&models.LocalTag{},
	); err != nil {
		log.Fatal("failed to migrate schema:", err)
	}

	if err := seed(db, store); err != nil {
		log.Fatal("failed to seed database:", err)
	}

	places, businesses, parishes, tags := store.Counts()
	slog.Info("database seeded",
		"lugares", places, "locales", businesses, "parroquias", parishes, "etiquetas", tags)

	if err := announceReload(cfg); err != nil {
		slog.Error("failed to announce reload, agents will pick up changes via CDC", "error", err)
	}
}

func seed(db *gorm.DB, store *knowledge.Store) error {
	return db.Transaction(func(tx *gorm.DB) error {
		parishIDs := make(map[string]uint64)
		for _, p := range store.Parishes() {
			var row models.Parroquia
			err := tx.Where(models.Parroquia{Nombre: p.Nombre}).
				Assign(models.Parroquia{
					Descripcion:         p.Descripcion,
					Poblacion:           p.Poblacion,
					TemperaturaPromedio: p.Temperatura,
					Estado:              true,
				}).
				FirstOrCreate(&row).Error
			if err != nil {
				return err
			}
			parishIDs[p.Nombre] = row.ID
		}

		tagIDs := make(map[string]uint64)
		for _, t := range store.TagDefs() {
			var row models.Tag
			err := tx.Where(models.Tag{Nombre: t.Nombre}).
				Assign(models.Tag{Definicion: t.Definicion}).
				FirstOrCreate(&row).Error
			if err != nil {
				return err
			}
			tagIDs[t.Nombre] = row.ID
		}

		for _, p := range store.Places() {
			attrs := models.LugarTuristico{
				Descripcion: p.Descripcion,
				Estado:      true,
			}
			if id, ok := parishIDs[p.Parroquia]; ok {
				attrs.ParroquiaID = &id
			}

			var row models.LugarTuristico
			err := tx.Where(models.LugarTuristico{Nombre: p.Nombre}).
				Assign(attrs).
				FirstOrCreate(&row).Error
			if err != nil {
				return err
			}

			if err := tx.Where("lugar_id = ?", row.ID).Delete(&models.Actividad{}).Error; err != nil {
				return err
			}
			for _, act := range p.Actividades {
				err := tx.Create(&models.Actividad{
					LugarID: row.ID,
					Nombre:  act.Nombre,
					Precio:  act.Precio,
					Estado:  true,
				}).Error
				if err != nil {
					return err
				}
			}

			for _, tag := range p.Etiquetas {
				tagID, ok := tagIDs[tag]
				if !ok {
					continue
				}
				err := tx.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&models.LugarTag{LugarID: row.ID, TagID: tagID}).Error
				if err != nil {
					return err
				}
			}
		}

		for _, b := range store.Businesses() {
			var row models.LocalTuristico
			err := tx.Where(models.LocalTuristico{Nombre: b.Nombre}).
				Assign(models.LocalTuristico{Descripcion: b.Descripcion, Estado: true}).
				FirstOrCreate(&row).Error
			if err != nil {
				return err
			}

			if err := tx.Where("local_id = ?", row.ID).Delete(&models.Servicio{}).Error; err != nil {
				return err
			}
			for _, s := range b.Servicios {
				if err := tx.Create(&models.Servicio{LocalID: row.ID, Nombre: s}).Error; err != nil {
					return err
				}
			}

			if err := tx.Where("local_id = ?", row.ID).Delete(&models.Horario{}).Error; err != nil {
				return err
			}
			for _, h := range b.Horarios {
				if err := tx.Create(&models.Horario{LocalID: row.ID, Dia: h.Dia, Rango: h.Rango}).Error; err != nil {
					return err
				}
			}

			for _, tag := range b.Etiquetas {
				tagID, ok := tagIDs[tag]
				if !ok {
					continue
				}
				err := tx.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&models.LocalTag{LocalID: row.ID, TagID: tagID}).Error
				if err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func announceReload(cfg *config.Config) error {
	nc, err := nats.Connect(cfg.Nats.ConnStr())
	if err != nil {
		return err
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		return err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Nats.Stream,
		Subjects:  []string{cfg.Nats.ReloadSubject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    time.Hour * 24 * 7,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return err
	}

	data, err := json.Marshal(ReloadEvent{Table: "seed", Kind: "insert"})
	if err != nil {
		return err
	}

	_, err = js.Publish(cfg.Nats.ReloadSubject, data)
	return err
}

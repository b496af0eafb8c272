// Command seed loads the static events.json and resources.json into the
// database so a fresh install starts with what the site shipped with.
package main

import (
	"context"
	"flag"

	"communityhub-backend/internal/config"
	"communityhub-backend/internal/coordinator"
	"communityhub-backend/internal/database"
	"communityhub-backend/internal/fallback"
	"communityhub-backend/internal/gateway/postgres"
	"communityhub-backend/internal/logger"
	"communityhub-backend/internal/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()
	cfg := config.New()
	log := logger.New(cfg.LogLevel)

	path := flag.String("file", cfg.Site.FallbackPath, "events file to import")
	resourcesPath := flag.String("resources", cfg.Site.ResourcesFallbackPath, "resources file to import, empty to skip")
	flag.Parse()

	if !cfg.HasDatabase() {
		log.Fatal("DATABASE_URL or DB_HOST must be set")
	}
	if err := database.RunMigrations(cfg.GetDatabaseURL(), log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	groups, err := fallback.NewSource(*path).Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to read events file")
	}

	gw := postgres.New(db)
	created, skipped := 0, 0
	for _, g := range groups {
		var groupID int64
		err := db.QueryRow(ctx, `
			INSERT INTO groups (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, g.Name).Scan(&groupID)
		if err != nil {
			log.WithError(err).WithField("group", g.Name).Error("Failed to upsert group")
			continue
		}

		for _, e := range g.Events {
			entry := log.WithFields(logrus.Fields{"group": g.Name, "title": e.Title, "date": e.Date})

			var exists bool
			err := db.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM events WHERE title = $1 AND date = $2::text::date AND group_id = $3)`,
				e.Title, e.Date, groupID).Scan(&exists)
			if err == nil && exists {
				skipped++
				continue
			}

			draft := models.EventDraft{
				Title:       e.Title,
				Date:        e.Date,
				StartTime:   e.StartTime,
				EndTime:     e.EndTime,
				Location:    e.Location,
				Description: e.Description,
				ImageURL:    e.ImageURL,
				GroupID:     groupID,
				IsFeatured:  e.IsFeatured,
			}.Normalize()
			if err := coordinator.Validate(draft); err != nil {
				entry.WithError(err).Warn("Skipping invalid event")
				skipped++
				continue
			}
			if _, err := gw.CreateEvent(ctx, draft); err != nil {
				entry.WithError(err).Error("Failed to create event")
				continue
			}
			created++
		}
	}

	log.WithFields(logrus.Fields{"created": created, "skipped": skipped}).Info("Events seeded")

	if *resourcesPath != "" {
		seedResources(ctx, db, gw, *resourcesPath, log)
	}
}

func seedResources(ctx context.Context, db *database.Database, gw *postgres.Gateway, path string, log *logrus.Logger) {
	dir, err := fallback.NewResourceSource(path).Load()
	if err != nil {
		log.WithError(err).Warn("Skipping resources file")
		return
	}

	ids := make(map[int64]int64, len(dir.Categories))
	for _, c := range dir.Categories {
		var id int64
		err := db.QueryRow(ctx, `
			INSERT INTO resource_categories (name, icon) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET icon = EXCLUDED.icon
			RETURNING id`, c.Name, c.Icon).Scan(&id)
		if err != nil {
			log.WithError(err).WithField("category", c.Name).Error("Failed to upsert category")
			continue
		}
		ids[c.ID] = id
	}

	created, skipped := 0, 0
	for _, r := range dir.Resources {
		entry := log.WithField("resource", r.Name)

		var exists bool
		err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM resources WHERE name = $1)`, r.Name).Scan(&exists)
		if err == nil && exists {
			skipped++
			continue
		}

		draft := models.ResourceDraft{
			Name:        r.Name,
			CategoryID:  ids[r.CategoryID],
			Description: r.Description,
			Location:    r.Location,
			Website:     r.Website,
			Contact:     r.Contact,
			Hours:       r.Hours,
			Tags:        r.Tags,
			IsActive:    true,
		}.Normalize()
		if err := coordinator.ValidateResource(draft); err != nil {
			entry.WithError(err).Warn("Skipping invalid resource")
			skipped++
			continue
		}
		if _, err := gw.CreateResource(ctx, draft); err != nil {
			entry.WithError(err).Error("Failed to create resource")
			continue
		}
		created++
	}

	log.WithFields(logrus.Fields{"created": created, "skipped": skipped}).Info("Resources seeded")
}

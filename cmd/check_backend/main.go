// Command check_backend probes the configured events backend and prints the
// events it returns, flagging which ones the site treats as upcoming.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"communityhub-backend/internal/config"
	"communityhub-backend/internal/database"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/gateway/postgres"
	"communityhub-backend/internal/gateway/rest"
	"communityhub-backend/internal/health"
	"communityhub-backend/internal/logger"
	"communityhub-backend/internal/models"
	"communityhub-backend/internal/render"
	"communityhub-backend/internal/supabase"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Invalid configuration:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var gw gateway.Store
	if cfg.Gateway == config.GatewayPostgres {
		db, err := database.NewConnection(ctx, cfg, log)
		if err != nil {
			fmt.Println("Database connection failed:", err)
			os.Exit(1)
		}
		defer db.Close()
		gw = postgres.New(db)
	} else {
		gw = rest.New(supabase.NewClient(cfg))
	}

	st := health.NewMonitor(gw, cfg.Site.HealthCron, logger.Component(log, "check"), func(bool) {}).Check(ctx)
	fmt.Printf("Connected: %v (attempts: %d)\n", st.Connected, st.ReconnectAttempts)
	if !st.Connected {
		fmt.Println("Error:", st.Error)
		os.Exit(1)
	}

	groups, err := gw.ListGroups(ctx)
	if err != nil {
		fmt.Println("Error fetching groups:", err)
		os.Exit(1)
	}
	fmt.Println("Groups found:", len(groups))

	events, err := gw.ListEvents(ctx)
	if err != nil {
		fmt.Println("Error fetching events:", err)
		os.Exit(1)
	}

	y, m, d := time.Now().In(cfg.Location()).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	fmt.Println("Today:", today.Format(models.DateLayout))
	fmt.Println("Events found:", len(events))
	for _, e := range events {
		fmt.Printf("Event: %s, Date: %s, Time: %s, Group: %s, IsUpcoming: %v\n",
			e.Title, render.FormatDate(e.Date), render.TimeRange(e.StartTime, e.EndTime), e.GroupName, e.IsUpcoming(today))
	}

	categories, err := gw.ListCategories(ctx, true)
	if err != nil {
		fmt.Println("Error fetching resource categories:", err)
		os.Exit(1)
	}
	resources, err := gw.ListResources(ctx, gateway.ResourceQuery{IncludeInactive: true})
	if err != nil {
		fmt.Println("Error fetching resources:", err)
		os.Exit(1)
	}
	fmt.Printf("Resource categories: %d, resources: %d\n", len(categories), len(resources))
	for _, r := range resources {
		fmt.Printf("Resource: %s %s, Category: %s, Active: %v\n", r.CategoryIcon, r.Name, r.CategoryName, r.IsActive)
	}
}

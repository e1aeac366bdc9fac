// Command seed-catalog loads treatment options into the portal database.
// With no -file it seeds a default catalog for local development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arafat-hossain/doctors-portal/libs/db"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/storage"
)

var defaultSlots = []string{
	"08.00 AM - 08.30 AM",
	"08.30 AM - 09.00 AM",
	"09.00 AM - 9.30 AM",
	"09.30 AM - 10.00 AM",
	"10.00 AM - 10.30 AM",
	"10.30 AM - 11.00 AM",
	"11.00 AM - 11.30 AM",
	"11.30 AM - 12.00 AM",
	"1.00 PM - 1.30 PM",
	"1.30 PM - 2.30 PM",
	"3.00 PM - 3.30 PM",
	"3.30 PM - 4.00 PM",
	"4.00 PM - 4.30 PM",
	"4.30 PM - 5.00 PM",
}

func defaultCatalog() []model.TreatmentOption {
	names := []struct {
		name  string
		price int64
	}{
		{"Teeth Orthodontics", 8000},
		{"Cosmetic Dentistry", 9000},
		{"Teeth Cleaning", 5000},
		{"Cavity Protection", 6000},
		{"Pediatric Dental", 7000},
		{"Oral Surgery", 12000},
	}
	options := make([]model.TreatmentOption, 0, len(names))
	for _, n := range names {
		options = append(options, model.TreatmentOption{
			Name:       n.name,
			PriceCents: n.price,
			Slots:      defaultSlots,
		})
	}
	return options
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "seed-catalog: "+msg)
	os.Exit(1)
}

func main() {
	var (
		dbURL = flag.String("database-url", getenv("DATABASE_URL", ""), "postgres connection string")
		file  = flag.String("file", "", "json file of treatment options (default: built-in catalog)")
	)
	flag.Parse()

	if strings.TrimSpace(*dbURL) == "" {
		fatal("DATABASE_URL is required")
	}

	options := defaultCatalog()
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fatal(err.Error())
		}
		options = nil
		if err := json.Unmarshal(data, &options); err != nil {
			fatal("invalid catalog file: " + err.Error())
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, *dbURL)
	if err != nil {
		fatal("db connection failed: " + err.Error())
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		fatal("schema setup failed: " + err.Error())
	}

	repo := storage.NewTreatmentRepository(pool)
	for _, opt := range options {
		id, err := repo.Upsert(ctx, opt)
		if err != nil {
			fatal("upsert " + opt.Name + ": " + err.Error())
		}
		fmt.Printf("seeded %s (%s)\n", opt.Name, id)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"document-portal-gateway/config"
	"document-portal-gateway/models"
	"document-portal-gateway/services"
	"document-portal-gateway/utils"

	"github.com/joho/godotenv"
)

// Prints the daily upload activity report straight from the upstream
// portal API, without going through the gateway HTTP surface. Intended
// for cron jobs and quick operator checks.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to environment variables")
	}

	date := flag.String("date", time.Now().In(config.DisplayLocation()).Format("2006-01-02"), "report date (YYYY-MM-DD)")
	flag.Parse()

	if !utils.ValidDay(*date) {
		log.Fatalf("invalid date %q, expected YYYY-MM-DD", *date)
	}

	username := os.Getenv("PORTAL_USERNAME")
	password := os.Getenv("PORTAL_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("PORTAL_USERNAME and PORTAL_PASSWORD must be set")
	}

	client := services.NewPortalClient(config.PortalAPIURL(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	login, err := client.Login(ctx, username, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	token := login.Tokens.Access

	records, err := client.ListFiles(ctx, token, url.Values{"date": {*date}})
	if err != nil {
		log.Fatalf("failed to fetch files: %v", err)
	}

	// The report covers regular uploaders only
	var filtered []models.FileRecord
	for _, rec := range records {
		if rec.UploaderRole == models.RoleAdmin {
			continue
		}
		filtered = append(filtered, rec)
	}

	report := services.BuildDailyReport(filtered, config.DisplayLocation())

	fmt.Printf("Daily upload report for %s\n", *date)
	if len(report) == 0 {
		fmt.Println("No uploads recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UPLOADER\tFILES\tPENDING\tVERIFIED\tREJECTED\tLATEST UPLOAD")
	total := 0
	for _, entry := range report {
		latest := entry.LatestUpload
		if latest == "" {
			latest = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			entry.Username, entry.Count,
			entry.StatusCounts.Pending, entry.StatusCounts.Verified, entry.StatusCounts.Rejected,
			latest)
		total += entry.Count
	}
	w.Flush()

	fmt.Printf("\n%d file(s) from %d uploader(s)\n", total, len(report))
}

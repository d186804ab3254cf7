package main

import (
	"context"
	"log"
	"os"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/carebridge/availability-sync/internal/infrastructure/clients/postgres"
	"github.com/carebridge/availability-sync/pkg/config"
)

// Seeds a small directory of institutions, providers, appointment types and
// departments for local development. The sync engine fills the availability
// tables on its own.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := goqu.New("postgres", pgClient.DB())

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				provider_availability,
				schedule_cache,
				appointment_type,
				ehr_department,
				provider,
				institution
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Institutions
	insert(ctx, db, "institution",
		goqu.Record{
			"id": "riverbend", "name": "Riverbend Health",
			"time_zone":        "America/New_York",
			"ehr_user_id":      "SYNC-USER", "ehr_user_id_type": "EXTERNAL",
			"wide_window_sync_enabled":             true,
			"schedule_cache_expiration_in_seconds": 3600,
		},
		goqu.Record{
			"id": "lakeside", "name": "Lakeside Behavioral",
			"time_zone":        "America/Chicago",
			"ehr_user_id":      "SYNC-USER", "ehr_user_id_type": "EXTERNAL",
			"wide_window_sync_enabled":             false,
			"schedule_cache_expiration_in_seconds": 3600,
		},
	)

	// 2. Providers, one per slot classification
	patelID := uuid.New()
	okaforID := uuid.New()
	insert(ctx, db, "provider",
		goqu.Record{
			"id": patelID, "institution_id": "riverbend",
			"name": "Dr. Anika Patel", "time_zone": "America/New_York",
			"ehr_provider_id": "PROV-1001", "ehr_provider_id_type": "EXTERNAL",
			"slot_classification": "DURATION_MATCHED", "active": true,
		},
		goqu.Record{
			"id": okaforID, "institution_id": "riverbend",
			"name": "Dr. Chidi Okafor", "time_zone": "America/New_York",
			"ehr_provider_id": "PROV-1002", "ehr_provider_id_type": "EXTERNAL",
			"slot_classification": "VISIT_TYPE_FILTERED", "active": true,
		},
	)

	// 3. Appointment types
	insert(ctx, db, "appointment_type",
		goqu.Record{
			"id": uuid.New(), "provider_id": patelID,
			"name": "NPV", "duration_in_minutes": 60,
			"ehr_visit_type_id": "VT-NPV", "ehr_visit_type_id_type": "INTERNAL",
		},
		goqu.Record{
			"id": uuid.New(), "provider_id": patelID,
			"name": "RPV", "duration_in_minutes": 30,
			"ehr_visit_type_id": "VT-RPV", "ehr_visit_type_id_type": "INTERNAL",
		},
		goqu.Record{
			"id": uuid.New(), "provider_id": okaforID,
			"name": "NPV", "duration_in_minutes": 60,
			"ehr_visit_type_id": "VT-NPV", "ehr_visit_type_id_type": "INTERNAL",
		},
	)

	// 4. Departments
	insert(ctx, db, "ehr_department",
		goqu.Record{
			"id": uuid.New(), "provider_id": patelID,
			"department_id": "DEPT-100", "department_id_type": "EXTERNAL",
		},
		goqu.Record{
			"id": uuid.New(), "provider_id": okaforID,
			"department_id": "DEPT-100", "department_id_type": "EXTERNAL",
		},
		goqu.Record{
			"id": uuid.New(), "provider_id": okaforID,
			"department_id": "DEPT-200", "department_id_type": "EXTERNAL",
		},
	)

	log.Println("Seeding complete")
}

func insert(ctx context.Context, db *goqu.Database, table string, rows ...goqu.Record) {
	query, args, err := db.Insert(table).Rows(rows).ToSQL()
	if err != nil {
		log.Fatalf("Failed to build insert for %s: %v", table, err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		log.Printf("Failed to seed %s: %v", table, err)
	}
}

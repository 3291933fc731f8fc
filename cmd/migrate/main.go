package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dkowalski/gridiron-gm/internal/models"
	"github.com/dkowalski/gridiron-gm/pkg/config"
	"github.com/dkowalski/gridiron-gm/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db, cfg); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB, cfg *config.Config) error {
	// Enable UUID extension for PostgreSQL
	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			return fmt.Errorf("failed to create UUID extension: %w", err)
		}
	}

	// Auto migrate all models
	if err := db.AutoMigrate(
		&models.Team{},
		&models.Player{},
		&models.SeasonRun{},
		&models.GameRecord{},
		&models.StandingRecord{},
		&models.InjuryRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Create indexes
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_game_records_run_week ON game_records(run_id, week)",
		"CREATE INDEX IF NOT EXISTS idx_game_records_run_stage ON game_records(run_id, stage)",
		"CREATE INDEX IF NOT EXISTS idx_standing_records_run_rank ON standing_records(run_id, rank)",
		"CREATE INDEX IF NOT EXISTS idx_injury_records_run_week ON injury_records(run_id, week)",
		"CREATE INDEX IF NOT EXISTS idx_players_team_position ON players(team_id, position)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Drop tables in reverse order to handle foreign key constraints
	tables := []string{
		"injury_records",
		"standing_records",
		"game_records",
		"season_runs",
		"players",
		"teams",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

// rosterSlot pairs a position with its planned snap count.
type rosterSlot struct {
	position string
	snaps    int
}

var rosterTemplate = []rosterSlot{
	{"QB", 65},
	{"RB", 45},
	{"RB", 25},
	{"WR", 60},
	{"WR", 55},
	{"WR", 40},
	{"TE", 50},
	{"OL", 65},
	{"DL", 55},
	{"EDGE", 50},
	{"LB", 60},
	{"CB", 60},
	{"S", 58},
	{"K", 8},
	{"P", 6},
}

var firstNames = []string{
	"Marcus", "DeShawn", "Tyler", "Jalen", "Connor", "Darius", "Wade", "Elias",
	"Trey", "Malik", "Grant", "Isaiah", "Reggie", "Colt", "Andre", "Victor",
	"Dominic", "Kurtis", "Terrell", "Shane", "Omar", "Brock", "Lamont", "Ezra",
}

var lastNames = []string{
	"Whitfield", "Okafor", "Brennan", "Castillo", "Mercer", "Holloway", "Drummond",
	"Akers", "Valentine", "Osei", "Lockhart", "Barnes", "Quintero", "Fontaine",
	"Rourke", "Delgado", "Mabry", "Stratton", "Kovacs", "Ellison", "Prather",
	"Haynes", "Voss", "Calloway",
}

func seedData(db *database.DB) error {
	teams := []models.Team{
		{Name: "Harbor City Admirals", Abbr: "HCA", Rating: 1580},
		{Name: "Ridgeline Bighorns", Abbr: "RGB", Rating: 1545},
		{Name: "Capital Stags", Abbr: "CAP", Rating: 1520},
		{Name: "Bayview Breakers", Abbr: "BAY", Rating: 1505},
		{Name: "Iron District Forge", Abbr: "IDF", Rating: 1495},
		{Name: "Prairie Howlers", Abbr: "PRH", Rating: 1470},
		{Name: "Summit Pioneers", Abbr: "SUM", Rating: 1450},
		{Name: "Delta Kingfishers", Abbr: "DEL", Rating: 1435},
	}

	if err := db.Create(&teams).Error; err != nil {
		return fmt.Errorf("failed to create teams: %w", err)
	}

	totalPlayers := 0
	for teamIndex, team := range teams {
		players := make([]models.Player, 0, len(rosterTemplate))
		for slotIndex, slot := range rosterTemplate {
			first := firstNames[(teamIndex*len(rosterTemplate)+slotIndex*5)%len(firstNames)]
			last := lastNames[(teamIndex*7+slotIndex*3)%len(lastNames)]
			players = append(players, models.Player{
				TeamID:       team.ID,
				Name:         fmt.Sprintf("%s %s", first, last),
				Position:     slot.position,
				SnapsPlanned: slot.snaps,
			})
		}
		if err := db.Create(&players).Error; err != nil {
			return fmt.Errorf("failed to create roster for %s: %w", team.Name, err)
		}
		totalPlayers += len(players)
	}

	logrus.Infof("Seeded %d teams and %d players", len(teams), totalPlayers)
	return nil
}

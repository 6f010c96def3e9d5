package mealprep

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

type CatalogConfig struct {
	Path     string `env:"MEALPREP_CATALOG_PATH,default=recipes/sorted_recipes_by_cooking_time.yaml"`
	S3Bucket string `env:"MEALPREP_CATALOG_S3_BUCKET"`
	S3Key    string `env:"MEALPREP_CATALOG_S3_KEY"`
}

// UseS3 reports whether the catalog should be read from S3 instead of the local path.
func (c CatalogConfig) UseS3() bool { return c.S3Bucket != "" && c.S3Key != "" }

type PlannerConfig struct {
	AllowRepeats bool `env:"MEALPREP_ALLOW_REPEATS,default=false"`
	Candidates   int  `env:"MEALPREP_CANDIDATES,default=1"`
}

type GroceryConfig struct {
	// Exclude lists pantry staples left off shopping lists, separated by semicolons.
	Exclude []string `env:"MEALPREP_GROCERY_EXCLUDE,default=water;drinking water"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=text"`
}

type JournalConfig struct {
	Dir string `env:"MEALPREP_JOURNAL_DIR"`
}

type NotifyConfig struct {
	WebhookURL string `env:"SLACK_WEBHOOK_URL"`
	Channel    string `env:"SLACK_CHANNEL,default=#meals"`
}

// Config gathers every environment setting of the CLI and the Lambda handler.
type Config struct {
	Catalog CatalogConfig
	Planner PlannerConfig
	Grocery GroceryConfig
	Log     LogConfig
	Journal JournalConfig
	Notify  NotifyConfig
}

// LoadConfig decodes Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Planner.Candidates < 1 {
		return Config{}, fmt.Errorf("decode config: MEALPREP_CANDIDATES must be at least 1, got %d", cfg.Planner.Candidates)
	}
	return cfg, nil
}

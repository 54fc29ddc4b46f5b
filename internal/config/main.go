package config

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gopkg.in/alecthomas/kingpin.v2"
)

const Version = "0.1.0"

// Backends a score repository can sync against.
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendNATS      = "nats"
	BackendPostgres  = "postgres"
)

type Config struct {
	ChartDirectory string
	AudioDirectory string
	Database       string
	User           string
	Level          string

	Backend             string
	FirebaseProject     string
	FirebaseCredentials string
	FirestoreCollection string
	NatsURL             string
	NatsBucket          string
	PostgresDSN         string

	MetricsAddress string
	LogLevel       zerolog.Level
	LogFile        string
	FramePeriod    time.Duration
	Mute           bool
}

// Guest reports whether no user was given, scores are then never persisted.
func (c *Config) Guest() bool {
	return c.User == ""
}

// Parse reads flags from args, falling back to RUSHLINE_* environment
// variables.
func Parse(args []string) (*Config, error) {
	app := kingpin.New("rushline", "A single-lane rhythm game for the terminal.")
	app.Version(Version)

	c := &Config{}
	var level string
	app.Flag("charts", "Chart directory (.sm or charts.yaml)").Default("charts").Envar("RUSHLINE_CHARTS").Short('c').ExistingDirVar(&c.ChartDirectory)
	app.Flag("audio", "Music directory").Default("assets").Envar("RUSHLINE_AUDIO").Short('a').StringVar(&c.AudioDirectory)
	app.Flag("db", "Local sqlite database").Default("rushline.db").Envar("RUSHLINE_DB").StringVar(&c.Database)
	app.Flag("user", "Player id, empty plays as guest").Envar("RUSHLINE_USER").Short('u').StringVar(&c.User)
	app.Flag("difficulty", "Start straight into a difficulty").Envar("RUSHLINE_DIFFICULTY").Short('d').EnumVar(&c.Level, "easy", "normal", "hard")

	app.Flag("backend", "Remote score store").Default(BackendMemory).Envar("RUSHLINE_BACKEND").Short('b').
		EnumVar(&c.Backend, BackendMemory, BackendFirestore, BackendNATS, BackendPostgres)
	app.Flag("firebase-project", "Firebase project id").Envar("FIREBASE_PROJECT_ID").StringVar(&c.FirebaseProject)
	app.Flag("firebase-credentials", "Service account json").Envar("GOOGLE_APPLICATION_CREDENTIALS").StringVar(&c.FirebaseCredentials)
	app.Flag("firestore-collection", "Collection holding score documents").Default("scores").Envar("RUSHLINE_FIRESTORE_COLLECTION").StringVar(&c.FirestoreCollection)
	app.Flag("nats-url", "NATS server").Default(nats.DefaultURL).Envar("NATS_URL").StringVar(&c.NatsURL)
	app.Flag("nats-bucket", "JetStream key-value bucket").Default("RUSHLINE_SCORES").Envar("RUSHLINE_NATS_BUCKET").StringVar(&c.NatsBucket)
	app.Flag("postgres-dsn", "PostgreSQL connection string").Envar("DATABASE_URL").StringVar(&c.PostgresDSN)

	app.Flag("metrics", "Serve Prometheus metrics on this address").Envar("RUSHLINE_METRICS_ADDR").StringVar(&c.MetricsAddress)
	app.Flag("log-level", "Log level").Default("info").Envar("RUSHLINE_LOG_LEVEL").EnumVar(&level, "trace", "debug", "info", "warn", "error", "disabled")
	app.Flag("log-file", "Write logs here while playing").Default("rushline.log").Envar("RUSHLINE_LOG_FILE").StringVar(&c.LogFile)
	app.Flag("frame-period", "Tick and render frame period").Default("16ms").Short('p').DurationVar(&c.FramePeriod)
	app.Flag("mute", "Do not play music").BoolVar(&c.Mute)

	if _, err := app.Parse(args); nil != err {
		return nil, err
	}

	lvl, err := zerolog.ParseLevel(level)
	if nil != err {
		return nil, err
	}
	c.LogLevel = lvl

	if err := c.validate(); nil != err {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.FramePeriod <= 0 {
		return fmt.Errorf("frame period must be positive, got %v", c.FramePeriod)
	}
	switch c.Backend {
	case BackendFirestore:
		if c.FirebaseProject == "" {
			return fmt.Errorf("backend %s needs --firebase-project", c.Backend)
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("backend %s needs --postgres-dsn", c.Backend)
		}
	}
	return nil
}

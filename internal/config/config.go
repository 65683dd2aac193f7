package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Bind          string
	Port          int
	DatabaseURL   string
	QuestionsFile string

	StartCountdown    time.Duration
	DefaultTimeLimit  time.Duration
	BowlAnswerTimeout time.Duration
	MinigameDuration  time.Duration
	HostGrace         time.Duration
	RoomIdleTTL       time.Duration

	SendBuffer int
	Verbose    bool
	LogFormat  string
}

// RegisterFlags adds every setting to fs with its default.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: BIND)")
	fs.IntVarP(&c.Port, "port", "p", 8080, "port to listen on (env: PORT)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "postgres DSN for the question bank (env: DATABASE_URL)")
	fs.StringVar(&c.QuestionsFile, "questions-file", "", "JSON question bank to load instead of the built-in one (env: QUESTIONS_FILE)")
	fs.DurationVar(&c.StartCountdown, "start-countdown", 3*time.Second, "countdown before the first question (env: START_COUNTDOWN)")
	fs.DurationVar(&c.DefaultTimeLimit, "default-time-limit", 15*time.Second, "answer window when a question sets none (env: DEFAULT_TIME_LIMIT)")
	fs.DurationVar(&c.BowlAnswerTimeout, "bowl-answer-timeout", 30*time.Second, "time a buzz winner has to answer (env: BOWL_ANSWER_TIMEOUT)")
	fs.DurationVar(&c.MinigameDuration, "minigame-duration", 30*time.Second, "default minigame length (env: MINIGAME_DURATION)")
	fs.DurationVar(&c.HostGrace, "host-grace", 40*time.Minute, "how long a room waits for a disconnected host (env: HOST_GRACE)")
	fs.DurationVar(&c.RoomIdleTTL, "room-idle-ttl", 40*time.Minute, "close rooms idle for longer than this (env: ROOM_IDLE_TTL)")
	fs.IntVar(&c.SendBuffer, "send-buffer", 32, "outbound messages queued per connection (env: SEND_BUFFER)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "log at debug level (env: VERBOSE)")
	fs.StringVar(&c.LogFormat, "log-format", "json", "log encoding, json or console (env: LOG_FORMAT)")
}

// ApplyEnv fills every flag not set on the command line from the
// environment variable of the same name.
func ApplyEnv(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err))
			}
		}
	})
	return errors.Join(errs...)
}

// LoadDotEnv loads .env into the environment when the file exists.
// Variables already set win.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load parses args and the environment into a validated Config.
func Load(args []string) (Config, error) {
	var c Config
	fs := pflag.NewFlagSet("quizroom", pflag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if err := ApplyEnv(fs); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"start-countdown", c.StartCountdown},
		{"default-time-limit", c.DefaultTimeLimit},
		{"bowl-answer-timeout", c.BowlAnswerTimeout},
		{"minigame-duration", c.MinigameDuration},
		{"host-grace", c.HostGrace},
		{"room-idle-ttl", c.RoomIdleTTL},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("--%s must be positive, got %s", d.name, d.d)
		}
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("--send-buffer must be at least 1, got %d", c.SendBuffer)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("--log-format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

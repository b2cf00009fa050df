package translator

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// envPrefix maps TRANSLATOR_DATA_SOURCE to data_source and so on.
const envPrefix = "TRANSLATOR_"

// Configuration describes one translation run.
type Configuration struct {
	// Library selects the registered facility library binding.
	Library string `koanf:"library"`
	// DataSource is the facility data source string, e.g.
	// "exp=amo15:run=64" or "shmem=psana.0". Required.
	DataSource string `koanf:"data_source"`
	// RunNumber, when positive, is appended to the data source as ":run=N".
	RunNumber int `koanf:"run_number"`
	// FacilityConfig is an optional configuration file handed to the
	// facility library itself.
	FacilityConfig string `koanf:"facility_config"`
	// CalibDir overrides the library calibration directory.
	CalibDir string `koanf:"calib_dir"`

	// Times and Fiducials select explicit events for indexed extraction.
	// Both must be given together, with equal lengths. Times are packed
	// 64-bit facility times (seconds<<32 | nanoseconds).
	Times     []uint64 `koanf:"times"`
	Fiducials []uint32 `koanf:"fiducials"`

	// Indexing enables sharded random access over the run index.
	Indexing bool `koanf:"indexing"`
	// IndexOffset skips the first events of the index, divided evenly
	// among the workers.
	IndexOffset int `koanf:"index_offset"`

	// MaxFrames caps the number of frames processed; 0 means no cap.
	MaxFrames int `koanf:"max_frames"`

	// WorkerRank and NumWorkers define this process' shard: it consumes
	// the events whose zero-based position modulo NumWorkers equals
	// WorkerRank. The external coordinator assigns ranks.
	WorkerRank int `koanf:"worker_rank"`
	NumWorkers int `koanf:"num_workers"`

	// Detector alias database. Matches the run database schema.
	NoDB   bool   `koanf:"no_db"`
	Host   string `koanf:"host"`
	User   string `koanf:"user"`
	Passwd string `koanf:"pass"`
	DBName string `koanf:"dbname"`

	Verbosity   int    `koanf:"verbosity"`
	LogLevel    string `koanf:"log_level"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// LoadConfiguration layers defaults, an optional YAML file and
// TRANSLATOR_* environment variables, then validates the result.
func LoadConfiguration(filename string) (Configuration, error) {
	config := Configuration{
		Library:    "sim",
		NoDB:       true,
		Host:       "daqdb.facility.net",
		User:       "daqreader",
		Passwd:     "readonly",
		DBName:     "RUNDB",
		NumWorkers: 1,
		LogLevel:   "info",
	}

	k := koanf.New(".")
	if filename != "" {
		if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return config, fmt.Errorf("error reading configuration file: %w", err)
		}
	}
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return config, fmt.Errorf("error reading environment: %w", err)
	}
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return config, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c Configuration) validate() error {
	if c.DataSource == "" {
		return &ErrConfig{Field: "data_source", Reason: "data source must be set"}
	}
	if (len(c.Times) == 0) != (len(c.Fiducials) == 0) {
		return &ErrConfig{
			Field:  "times",
			Reason: "extraction of selected events expects both times and fiducials",
		}
	}
	if len(c.Times) != len(c.Fiducials) {
		return &ErrConfig{
			Field:  "times",
			Reason: fmt.Sprintf("%d times but %d fiducials", len(c.Times), len(c.Fiducials)),
		}
	}
	if len(c.Times) > 0 && !strings.HasPrefix(c.DataSource, "exp=") {
		return &ErrConfig{
			Field:  "data_source",
			Reason: "extraction by time and fiducial only works when reading from indexed files",
		}
	}
	if c.Indexing && !strings.HasPrefix(c.DataSource, "exp=") {
		return &ErrConfig{
			Field:  "indexing",
			Reason: "indexed access only works when reading from indexed files",
		}
	}
	if len(c.Times) > 0 && c.Indexing {
		return &ErrConfig{
			Field:  "indexing",
			Reason: "indexing and an explicit time list are mutually exclusive",
		}
	}
	if c.NumWorkers < 1 {
		return &ErrConfig{Field: "num_workers", Reason: "at least one worker required"}
	}
	if c.WorkerRank < 0 || c.WorkerRank >= c.NumWorkers {
		return &ErrConfig{
			Field:  "worker_rank",
			Reason: fmt.Sprintf("rank %d outside [0, %d)", c.WorkerRank, c.NumWorkers),
		}
	}
	if c.IndexOffset < 0 {
		return &ErrConfig{Field: "index_offset", Reason: "index offset must not be negative"}
	}
	if c.MaxFrames < 0 {
		return &ErrConfig{Field: "max_frames", Reason: "frame cap must not be negative"}
	}
	return nil
}

// PrintConfiguration logs the effective configuration, one line per field.
func PrintConfiguration(config Configuration, log zerolog.Logger) {
	log.Info().Str("module", "config").Msgf("Library: %s", config.Library)
	log.Info().Str("module", "config").Msgf("Data source: %s", config.DataSource)
	log.Info().Str("module", "config").Msgf("Run number: %d", config.RunNumber)
	log.Info().Str("module", "config").Msgf("Calib dir: %s", config.CalibDir)
	log.Info().Str("module", "config").Msgf("Indexing: %t", config.Indexing)
	log.Info().Str("module", "config").Msgf("Index offset: %d", config.IndexOffset)
	log.Info().Str("module", "config").Msgf("Selected events: %d", len(config.Times))
	log.Info().Str("module", "config").Msgf("Max frames: %d", config.MaxFrames)
	log.Info().Str("module", "config").Msgf("Worker rank: %d", config.WorkerRank)
	log.Info().Str("module", "config").Msgf("Number of workers: %d", config.NumWorkers)
	log.Info().Str("module", "config").Msgf("No DB: %t", config.NoDB)
	log.Info().Str("module", "config").Msgf("Host: %s", config.Host)
	log.Info().Str("module", "config").Msgf("DB name: %s", config.DBName)
	log.Info().Str("module", "config").Msgf("Verbosity: %d", config.Verbosity)
}

package app

import "fmt"

// Commands understood by the application.
const (
	CmdRun     = "run"
	CmdReport  = "report"
	CmdCatalog = "catalog"
	CmdProfile = "profile"
	CmdTrain   = "train"
)

// Config holds everything an App instance needs to run one command.
type Config struct {
	Command string

	LogFormat string
	LogLevel  string

	// run / report
	ProfilePath string
	TopDir      string
	Filter      string
	Reset       bool
	HeaderLogo  string
	FooterLogo  string

	// catalog / profile
	Dirs        []string
	CatalogPath string
	OutPath     string
	OutputTag   string

	// train
	TrainConfigPath string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CmdRun, CmdReport:
		if cfg.ProfilePath == "" {
			return nil, fmt.Errorf("%s: a profile file is required", cfg.Command)
		}
	case CmdCatalog:
		if len(cfg.Dirs) == 0 {
			return nil, fmt.Errorf("catalog: at least one directory is required")
		}
	case CmdProfile:
		if cfg.CatalogPath == "" {
			return nil, fmt.Errorf("profile: a catalog file is required")
		}
	case CmdTrain:
		if cfg.TrainConfigPath == "" {
			return nil, fmt.Errorf("train: a training config file is required")
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	return &cfg, nil
}

package server

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/undeconstructed/machi/machi"
)

// Config is everything the server reads from the environment.
type Config struct {
	TCPAddr  string `env:"MACHI_TCP_ADDR" envDefault:"0.0.0.0:1234"`
	WebAddr  string `env:"MACHI_WEB_ADDR" envDefault:"0.0.0.0:1235"`
	GRPCAddr string `env:"MACHI_GRPC_ADDR" envDefault:"0.0.0.0:1236"`

	// Origins that may open a websocket, as host patterns.
	Origins []string `env:"MACHI_ORIGINS" envSeparator:"," envDefault:"localhost:8080"`

	Activation    string `env:"MACHI_ACTIVATION" envDefault:"all"`
	Exit          string `env:"MACHI_EXIT" envDefault:"retain"`
	RejectUnknown bool   `env:"MACHI_REJECT_UNKNOWN" envDefault:"false"`

	// DiceSeed fixes the dice, 0 means seed from the clock.
	DiceSeed int64 `env:"MACHI_DICE_SEED" envDefault:"0"`
}

// LoadConfig reads config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Rules turns the policy names into game rules.
func (c Config) Rules() (machi.Rules, error) {
	rules := machi.DefaultRules()

	switch p := machi.ActivationPolicy(c.Activation); p {
	case machi.ActivateAll, machi.ActivateByType:
		rules.Activation = p
	default:
		return rules, fmt.Errorf("bad activation policy: %q", c.Activation)
	}

	switch p := machi.ExitPolicy(c.Exit); p {
	case machi.RetainInventory, machi.PurgeInventory:
		rules.Exit = p
	default:
		return rules, fmt.Errorf("bad exit policy: %q", c.Exit)
	}

	rules.RejectUnknown = c.RejectUnknown
	return rules, nil
}

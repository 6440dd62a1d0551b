package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/chess10kp/skoll/internal/config"
)

func main() {
	var printDefaults bool

	flagSet := pflag.NewFlagSet("config-validator", pflag.ContinueOnError)
	flagSet.BoolVar(&printDefaults, "defaults", false, "write the default config to the given path instead of validating")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	configPath := config.Default().ConfigPath()
	if flagSet.NArg() > 0 {
		configPath = flagSet.Arg(0)
	}

	if printDefaults {
		if err := config.SaveConfig(config.Default(), configPath); err != nil {
			fmt.Printf("Failed to write default config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default config to %s\n", configPath)
		return
	}

	fmt.Printf("Validating config: %s\n", configPath)

	if err := config.ValidateConfig(configPath); err != nil {
		fmt.Printf("Config validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Config is valid")
}

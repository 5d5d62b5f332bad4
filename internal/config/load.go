package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load initializes the configuration from file and environment variables.
func Load(cfgFile string) {
	// explicit .env loading; a missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".allocbench")
	}

	viper.SetEnvPrefix("ALLOCBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Driver defaults
	viper.SetDefault("iters", 25)
	viper.SetDefault("timer", "external")
	viper.SetDefault("timeout", 0)
	viper.SetDefault("history_file", ".allocbench/history.json")
	viper.SetDefault("metrics_addr", "")

	// Plotter defaults
	viper.SetDefault("output_dir", "plots")
	viper.SetDefault("top_n", 10)
	viper.SetDefault("baseline", "gnu")

	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")

	// If a config file is found, read it in; its absence is not an error.
	_ = viper.ReadInConfig()
}

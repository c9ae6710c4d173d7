// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envConfigLocation = "CAIRN_CONFIG"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cairn",
	Short: "Cairn is a personal content-addressed file system",
	Long: `Cairn keeps a personal file system on top of a content-addressed block store.

Files under public/ are stored in the clear, with their full history.
Files under private/ are encrypted, and their names and structure are hidden from the block store.

Every change publishes a new root. The current root of the local device is kept in its state directory.
`,
	SilenceUsage: true,
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addStateFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addGrantFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigDefaults(viper.GetViper())
	if os.Getenv(envConfigLocation) != "" {
		viper.SetConfigFile(os.Getenv(envConfigLocation))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.cairn")
		viper.SetConfigName("cairn")
	}

	viper.SetEnvPrefix("cairn")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		infoLogger.Println("Using config file:", viper.ConfigFileUsed())
	}

	var err error
	config, err = newConfig(viper.GetViper())
	if err != nil {
		wrapFatalln("invalid configuration", err)
		return
	}
	config.setCairnParams(&cairnFlags)
}

/*
Package cmd implements the medhub command-line interface: serving the hub
and its specialist agents, and a small chat client for talking to a
running hub.
*/
package cmd

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

/*
Embed a mini filesystem into the binary to hold the default config file.
It is written to the home directory of the user running the service, so a
deployment can override any key by editing the file in place.
*/
//go:embed cfg/*
var embedded embed.FS

var (
	projectName = "medhub"
	cfgFile     string
	llmAPIKey   string

	rootCmd = &cobra.Command{
		Use:   "medhub",
		Short: "A medical multi-agent routing hub speaking the A2A protocol",
		Long:  longRoot,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yml",
		"config file (default is $HOME/."+projectName+"/config.yml)",
	)

	rootCmd.PersistentFlags().StringVar(
		&llmAPIKey,
		"llm-api-key",
		os.Getenv("LLM_API_KEY"),
		"API key for the LLM endpoint",
	)
}

func initConfig() {
	if err := writeConfig(); err != nil {
		log.Fatal("failed to write default config", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	home, _ := os.UserHomeDir()
	viper.AddConfigPath(home + "/." + projectName)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatal("failed to read config", "error", err)
	}

	if llmAPIKey != "" {
		viper.Set("llm.api_key", llmAPIKey)
	}
}

func writeConfig() (err error) {
	var (
		home, _ = os.UserHomeDir()
		fh      fs.File
		buf     bytes.Buffer
	)

	configDir := home + "/." + projectName

	if !checkFileExists(configDir) {
		if err = os.MkdirAll(configDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	fullPath := configDir + "/" + cfgFile

	if checkFileExists(fullPath) {
		return nil
	}

	if fh, err = embedded.Open("cfg/" + cfgFile); err != nil {
		return fmt.Errorf("failed to open embedded config file: %w", err)
	}

	defer fh.Close()

	if _, err = io.Copy(&buf, fh); err != nil {
		return fmt.Errorf("failed to read embedded config file: %w", err)
	}

	if err = os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info("wrote config file", "path", fullPath)

	return nil
}

func checkFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

var longRoot = `
medhub routes medical queries to specialist agents over the A2A protocol.

A routing classifier picks the best agent for each query, the hub invokes
it with a streamed task, and the resulting status and artifact events are
relayed back to the caller.
`

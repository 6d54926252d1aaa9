package phiana

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type Configuration struct {
	FileIn         string   `json:"file_in"`
	Tree           string   `json:"tree"`
	FileOut        string   `json:"file_out"`
	Format         string   `json:"format"`
	OutTree        string   `json:"out_tree"`
	Channel        string   `json:"channel"`
	BeamEnergy     float64  `json:"beam_energy"`
	Selections     []string `json:"selections"`
	DaughterPolicy string   `json:"daughter_policy"`
	NumWorkers     int      `json:"num_workers"`
	Skip           int64    `json:"skip"`
	MaxEvents      int64    `json:"max_events"`
	Verbosity      int      `json:"verbosity"`
	Profile        bool     `json:"profile"`
}

// DefaultConfiguration returns the settings used when no file is given.
func DefaultConfiguration() Configuration {
	return Configuration{
		Tree:           "clas12",
		FileOut:        "phi.root",
		Format:         "auto",
		OutTree:        "phi",
		Channel:        "full",
		BeamEnergy:     10.6,
		Selections:     []string{"phi"},
		DaughterPolicy: "ignore",
		NumWorkers:     1,
		Skip:           0,
		MaxEvents:      0,
		Verbosity:      0,
		Profile:        false,
	}
}

// LoadConfiguration reads filename over the defaults. An empty filename
// returns the defaults.
func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("Tree: %s", config.Tree), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Format: %s", config.Format), "config")
	logger.Info(fmt.Sprintf("Output tree: %s", config.OutTree), "config")
	logger.Info(fmt.Sprintf("Channel: %s", config.Channel), "config")
	logger.Info(fmt.Sprintf("Beam energy: %g GeV", config.BeamEnergy), "config")
	logger.Info(fmt.Sprintf("Selections: %s", strings.Join(config.Selections, ", ")), "config")
	logger.Info(fmt.Sprintf("Daughter policy: %s", config.DaughterPolicy), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Profile: %t", config.Profile), "config")
}

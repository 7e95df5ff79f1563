package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/pqsim/sim"
	"github.com/inference-sim/pqsim/sim/sampling"
)

// Scenario is the on-disk form of a simulation setup: a sim.Config plus
// run-level options.
type Scenario struct {
	sim.Config   `yaml:",inline"`
	Replications int `yaml:"replications"`
}

// LoadScenario reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
// Keys absent from the file keep the sim.NewConfig defaults; keys present
// with a zero value stay zero, so "seed: 0" is honored and
// "dispatch_tick: 0" fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc := Scenario{Config: sim.NewConfig(nil, 0, 0)}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if sc.Replications < 0 {
		return nil, fmt.Errorf("replications must be non-negative, got %d", sc.Replications)
	}
	sc.Config = sc.Config.WithDefaults()
	return &sc, nil
}

// resolveScenario builds the scenario for cmd. Without --config every flag
// value (or default) is used; with a file, flags only override the keys the
// user set explicitly.
func resolveScenario(cmd *cobra.Command) (*Scenario, error) {
	sc := &Scenario{Config: sim.NewConfig(nil, 0, 0)}
	fromFile := configPath != ""
	if fromFile {
		loaded, err := LoadScenario(configPath)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}
	use := func(name string) bool {
		return !fromFile || cmd.Flags().Changed(name)
	}

	if use("arrival-rates") {
		sc.ArrivalRates = append([]float64(nil), arrivalRates...)
	}
	if use("service-rate") {
		sc.ServiceRate = serviceRate
	}
	if use("horizon") {
		sc.Horizon = horizon
	}
	if use("dispatch-tick") {
		sc.DispatchTick = dispatchTick
	}
	if use("arrival-process") {
		sc.ArrivalProcess = sampling.ArrivalProcess(arrivalProcess)
	}
	if use("service-mode") {
		sc.ServiceMode = sampling.ServiceMode(serviceMode)
	}
	if use("seed") {
		sc.Seed = seed
	}
	if cmd.Flags().Lookup("replications") != nil && (use("replications") || sc.Replications == 0) {
		sc.Replications = replications
	}
	return sc, nil
}

package neat

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for the NEAT algorithm. The INI
// layout follows neat-python: [NEAT], [DefaultGenome],
// [DefaultReproduction], [DefaultSpeciesSet] and [DefaultStagnation].
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
	Stagnation   StagnationConfig
}

// NeatConfig holds parameters specific to the NEAT algorithm itself.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size"`
	FitnessCriterion     string  `ini:"fitness_criterion"` // "max", "min" or "mean"
	FitnessThreshold     float64 `ini:"fitness_threshold"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction"`
	NoFitnessTermination bool    `ini:"no_fitness_termination"`
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs                        int     `ini:"num_inputs"`
	NumOutputs                       int     `ini:"num_outputs"`
	NumHidden                        int     `ini:"num_hidden"`
	FeedForward                      bool    `ini:"feed_forward"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
	ConnAddProb                      float64 `ini:"conn_add_prob"`
	ConnDeleteProb                   float64 `ini:"conn_delete_prob"`
	NodeAddProb                      float64 `ini:"node_add_prob"`
	NodeDeleteProb                   float64 `ini:"node_delete_prob"`
	SingleStructuralMutation         bool    `ini:"single_structural_mutation"`
	StructuralMutationSurer          string  `ini:"structural_mutation_surer"`
	InitialConnection                string  `ini:"initial_connection"` // may carry a fraction: "partial_direct 0.5"

	BiasInitMean    float64 `ini:"bias_init_mean"`
	BiasInitStdev   float64 `ini:"bias_init_stdev"`
	BiasInitType    string  `ini:"bias_init_type"`
	BiasReplaceRate float64 `ini:"bias_replace_rate"`
	BiasMutateRate  float64 `ini:"bias_mutate_rate"`
	BiasMutatePower float64 `ini:"bias_mutate_power"`
	BiasMaxValue    float64 `ini:"bias_max_value"`
	BiasMinValue    float64 `ini:"bias_min_value"`

	ResponseInitMean    float64 `ini:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev"`
	ResponseInitType    string  `ini:"response_init_type"`
	ResponseReplaceRate float64 `ini:"response_replace_rate"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate"`
	ResponseMutatePower float64 `ini:"response_mutate_power"`
	ResponseMaxValue    float64 `ini:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value"`

	ActivationDefault    string   `ini:"activation_default"`
	ActivationOptions    []string `ini:"activation_options" delim:" "`
	ActivationMutateRate float64  `ini:"activation_mutate_rate"`

	AggregationDefault    string   `ini:"aggregation_default"`
	AggregationOptions    []string `ini:"aggregation_options" delim:" "`
	AggregationMutateRate float64  `ini:"aggregation_mutate_rate"`

	WeightInitMean    float64 `ini:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type"`
	WeightReplaceRate float64 `ini:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power"`
	WeightMaxValue    float64 `ini:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value"`

	EnabledDefault        string  `ini:"enabled_default"`
	EnabledMutateRate     float64 `ini:"enabled_mutate_rate"`
	EnabledRateToTrueAdd  float64 `ini:"enabled_rate_to_true_add"`
	EnabledRateToFalseAdd float64 `ini:"enabled_rate_to_false_add"`

	// Derived while loading.
	InputKeys          []int   `ini:"-"`
	OutputKeys         []int   `ini:"-"`
	ConnectionScheme   string  `ini:"-"` // initial_connection without its fraction
	ConnectionFraction float64 `ini:"-"`
	NodeKeyIndex       int     `ini:"-"` // next hidden node key
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold"`
	MinSpeciesSize    int     `ini:"min_species_size"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism"`
}

var connectionSchemes = map[string]bool{
	"unconnected": true, "fs_neat_nohidden": true, "fs_neat": true, "fs_neat_hidden": true,
	"full_nodirect": true, "full": true, "full_direct": true,
	"partial_nodirect": true, "partial": true, "partial_direct": true,
}

// LoadConfig loads configuration parameters from an INI file.
func LoadConfig(filePath string) (*Config, error) {
	config, err := load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return config, nil
}

// ParseConfig loads configuration parameters from INI data in memory.
func ParseConfig(data []byte) (*Config, error) {
	return load(data)
}

func load(source interface{}) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, source)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	sections := []struct {
		name string
		dst  interface{}
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultReproduction", &config.Reproduction},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
	}
	for _, s := range sections {
		if err := file.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	// neat-python writes booleans as True/False, possibly followed by an
	// inline comment that IgnoreInlineComment leaves in the value.
	bools := []struct {
		section, key string
		dst          *bool
	}{
		{"NEAT", "reset_on_extinction", &config.Neat.ResetOnExtinction},
		{"NEAT", "no_fitness_termination", &config.Neat.NoFitnessTermination},
		{"DefaultGenome", "feed_forward", &config.Genome.FeedForward},
		{"DefaultGenome", "single_structural_mutation", &config.Genome.SingleStructuralMutation},
	}
	for _, b := range bools {
		if key, err := file.Section(b.section).GetKey(b.key); err == nil {
			*b.dst = parseBool(cleanIniString(key.String()))
		}
	}

	genome := file.Section("DefaultGenome")
	config.Genome.ActivationOptions = strings.Fields(cleanIniString(genome.Key("activation_options").String()))
	config.Genome.AggregationOptions = strings.Fields(cleanIniString(genome.Key("aggregation_options").String()))

	config.clean()
	config.applyDefaults()
	if err := config.derive(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) clean() {
	for _, s := range []*string{
		&c.Neat.FitnessCriterion,
		&c.Genome.BiasInitType,
		&c.Genome.ResponseInitType,
		&c.Genome.ActivationDefault,
		&c.Genome.AggregationDefault,
		&c.Genome.WeightInitType,
		&c.Genome.EnabledDefault,
		&c.Genome.InitialConnection,
		&c.Genome.StructuralMutationSurer,
		&c.Stagnation.SpeciesFitnessFunc,
	} {
		*s = cleanIniString(*s)
	}
}

// applyDefaults fills values neat-python sets in code rather than in the
// config file.
func (c *Config) applyDefaults() {
	g := &c.Genome
	for _, d := range []struct {
		dst *string
		val string
	}{
		{&g.BiasInitType, "gaussian"},
		{&g.ResponseInitType, "gaussian"},
		{&g.WeightInitType, "gaussian"},
		{&g.ActivationDefault, "random"},
		{&g.AggregationDefault, "random"},
		{&g.EnabledDefault, "True"},
		{&g.InitialConnection, "unconnected"},
		{&g.StructuralMutationSurer, "default"},
		{&c.Neat.FitnessCriterion, "max"},
		{&c.Stagnation.SpeciesFitnessFunc, "mean"},
	} {
		if *d.dst == "" {
			*d.dst = d.val
		}
	}
	if c.Reproduction.MinSpeciesSize == 0 {
		c.Reproduction.MinSpeciesSize = 1
	}
	if c.Reproduction.SurvivalThreshold == 0 {
		c.Reproduction.SurvivalThreshold = 0.2
	}
	if c.Stagnation.MaxStagnation == 0 {
		c.Stagnation.MaxStagnation = 15
	}
}

// derive computes the input/output keys and splits initial_connection.
func (c *Config) derive() error {
	g := &c.Genome
	g.InputKeys = make([]int, g.NumInputs)
	for i := range g.InputKeys {
		g.InputKeys[i] = -(i + 1)
	}
	g.OutputKeys = make([]int, g.NumOutputs)
	for i := range g.OutputKeys {
		g.OutputKeys[i] = i
	}
	g.NodeKeyIndex = g.NumOutputs

	parts := strings.Fields(g.InitialConnection)
	g.ConnectionScheme = parts[0]
	g.ConnectionFraction = 1.0
	if strings.HasPrefix(g.ConnectionScheme, "partial") {
		if len(parts) < 2 {
			return fmt.Errorf("config error: initial_connection '%s' needs a connection fraction", g.ConnectionScheme)
		}
		f, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("config error: partial connection fraction must be between 0 and 1, got '%s'", parts[1])
		}
		g.ConnectionFraction = f
	}
	return nil
}

// Validate checks the configuration for values the algorithm cannot run with.
func (c *Config) Validate() error {
	g := &c.Genome
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if len(g.ActivationOptions) == 0 {
		return fmt.Errorf("config error: activation_options must be specified")
	}
	if len(g.AggregationOptions) == 0 {
		return fmt.Errorf("config error: aggregation_options must be specified")
	}
	for _, name := range g.ActivationOptions {
		if _, err := GetActivation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	for _, name := range g.AggregationOptions {
		if _, err := GetAggregation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if g.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if g.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if g.NumHidden < 0 {
		return fmt.Errorf("config error: num_hidden cannot be negative")
	}
	if g.CompatibilityDisjointCoefficient < 0 || g.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}
	for name, p := range map[string]float64{
		"conn_add_prob":    g.ConnAddProb,
		"conn_delete_prob": g.ConnDeleteProb,
		"node_add_prob":    g.NodeAddProb,
		"node_delete_prob": g.NodeDeleteProb,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}
	if g.BiasMaxValue < g.BiasMinValue {
		return fmt.Errorf("config error: bias_max_value cannot be less than bias_min_value")
	}
	if g.ResponseMaxValue < g.ResponseMinValue {
		return fmt.Errorf("config error: response_max_value cannot be less than response_min_value")
	}
	if g.WeightMaxValue < g.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}
	if !connectionSchemes[g.ConnectionScheme] {
		return fmt.Errorf("config error: invalid initial_connection type '%s'", g.ConnectionScheme)
	}
	if c.Reproduction.SurvivalThreshold < 0 || c.Reproduction.SurvivalThreshold > 1 {
		return fmt.Errorf("config error: survival_threshold must be between 0 and 1")
	}
	if c.Reproduction.MinSpeciesSize <= 0 {
		return fmt.Errorf("config error: min_species_size must be positive")
	}
	if c.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	switch strings.ToLower(c.Neat.FitnessCriterion) {
	case "max", "min", "mean":
	default:
		return fmt.Errorf("config error: invalid fitness_criterion '%s', must be one of 'max', 'min', 'mean'", c.Neat.FitnessCriterion)
	}
	if _, ok := StatFunctions[strings.ToLower(c.Stagnation.SpeciesFitnessFunc)]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}
	return nil
}

// GetNewNodeKey returns a fresh hidden node key.
func (gc *GenomeConfig) GetNewNodeKey() int {
	key := gc.NodeKeyIndex
	gc.NodeKeyIndex++
	return key
}

// IsInput reports whether key is one of the input pins.
func (gc *GenomeConfig) IsInput(key int) bool {
	return key < 0 && -key <= gc.NumInputs
}

// IsOutput reports whether key is one of the output nodes.
func (gc *GenomeConfig) IsOutput(key int) bool {
	return key >= 0 && key < gc.NumOutputs
}

// cleanIniString removes inline comments and trims whitespace.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true
	}
	return false
}

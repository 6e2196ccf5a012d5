// Package config holds the settings of the digestsim command, read by
// viper from defaults, an optional YAML settings file, DIGESTSIM_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
	"github.com/ChrisMcGann/DigestSim/pkg/digest"
	"github.com/ChrisMcGann/DigestSim/pkg/filter"
	"github.com/ChrisMcGann/DigestSim/pkg/match"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// DIGESTSIM_MATCHING_NET_TOLERANCE.
const EnvPrefix = "DIGESTSIM"

// DefaultFileName is the settings file looked up in the working directory
// when none is given.
const DefaultFileName = "digestsim"

// DigestionConfig are the digestion settings.
type DigestionConfig struct {
	Rule               string `mapstructure:"rule"`
	MaxMissedCleavages int    `mapstructure:"max-missed-cleavages"`
	MinResidues        int    `mapstructure:"min-residues"`

	MinMass float64 `mapstructure:"min-mass"`
	MaxMass float64 `mapstructure:"max-mass"`
	// MassType is "M" for neutral mass bounds or "MH".
	MassType    string `mapstructure:"mass-type"`
	AverageMass bool   `mapstructure:"average-mass"`

	FilterPI bool    `mapstructure:"filter-pi"`
	MinPI    float64 `mapstructure:"min-pi"`
	MaxPI    float64 `mapstructure:"max-pi"`

	Cysteine         string `mapstructure:"cysteine"`
	RemoveDuplicates bool   `mapstructure:"remove-duplicates"`
	IncludeFlanking  bool   `mapstructure:"include-flanking"`
	ResidueFilter    string `mapstructure:"residue-filter"`

	ComputePI             bool `mapstructure:"compute-pi"`
	ComputeHydrophobicity bool `mapstructure:"compute-hydrophobicity"`
	ComputeNET            bool `mapstructure:"compute-net"`
}

// MatchingConfig are the peak matching settings.
type MatchingConfig struct {
	MassTolerance     float64 `mapstructure:"mass-tolerance"`
	MassToleranceType string  `mapstructure:"mass-tolerance-type"`
	NETTolerance      float64 `mapstructure:"net-tolerance"`

	SLiCMassStDevPPM float64 `mapstructure:"slic-mass-stdev-ppm"`
	SLiCNETStDev     float64 `mapstructure:"slic-net-stdev"`
	UseAMTNETStDev   bool    `mapstructure:"use-amt-net-stdev"`
	AutoDefineSLiC   bool    `mapstructure:"auto-define-slic"`

	MaxSearchDistanceMultiplier float64 `mapstructure:"max-search-distance-multiplier"`
	UseSLiC                     bool    `mapstructure:"use-slic"`
	Ellipse                     bool    `mapstructure:"ellipse"`
	MaxResults                  int     `mapstructure:"max-results"`

	BinStart float64 `mapstructure:"bin-start"`
	BinEnd   float64 `mapstructure:"bin-end"`
	BinWidth float64 `mapstructure:"bin-width"`
}

// FilterConfig are the post-digestion fragment filters.
type FilterConfig struct {
	Pattern         string  `mapstructure:"pattern"`
	ExcludeResidues string  `mapstructure:"exclude-residues"`
	MinNET          float64 `mapstructure:"min-net"`
	MaxNET          float64 `mapstructure:"max-net"`

	HydrophobicityWindow bool    `mapstructure:"hydrophobicity-window"`
	MinHydrophobicity    float64 `mapstructure:"min-hydrophobicity"`
	MaxHydrophobicity    float64 `mapstructure:"max-hydrophobicity"`
}

// OutputConfig selects where results go.
type OutputConfig struct {
	// Format is "sqlite" or "tsv".
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// CacheConfig locates the persistent NET cache. An empty path disables it.
type CacheConfig struct {
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Settings is the root settings struct.
type Settings struct {
	Digestion DigestionConfig `mapstructure:"digestion"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Output    OutputConfig    `mapstructure:"output"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	d := digest.DefaultOptions()
	v.SetDefault("digestion.rule", d.Rule.Name())
	v.SetDefault("digestion.max-missed-cleavages", d.MaxMissedCleavages)
	v.SetDefault("digestion.min-residues", d.MinFragmentResidueCount)
	v.SetDefault("digestion.min-mass", d.MinFragmentMass)
	v.SetDefault("digestion.max-mass", d.MaxFragmentMass)
	v.SetDefault("digestion.mass-type", d.BoundsMassType.String())
	v.SetDefault("digestion.average-mass", false)
	v.SetDefault("digestion.filter-pi", d.FilterByIsoelectricPoint)
	v.SetDefault("digestion.min-pi", d.MinIsoelectricPoint)
	v.SetDefault("digestion.max-pi", d.MaxIsoelectricPoint)
	v.SetDefault("digestion.cysteine", d.CysteineTreatment.String())
	v.SetDefault("digestion.remove-duplicates", d.RemoveDuplicateSequences)
	v.SetDefault("digestion.include-flanking", d.IncludePrefixAndSuffixResidues)
	v.SetDefault("digestion.residue-filter", d.ResidueFilter)
	v.SetDefault("digestion.compute-pi", true)
	v.SetDefault("digestion.compute-hydrophobicity", true)
	v.SetDefault("digestion.compute-net", true)

	m := match.DefaultThresholds()
	v.SetDefault("matching.mass-tolerance", m.MassTolerance)
	v.SetDefault("matching.mass-tolerance-type", m.MassToleranceType.String())
	v.SetDefault("matching.net-tolerance", m.NETTolerance)
	v.SetDefault("matching.slic-mass-stdev-ppm", m.SLiCMassStDevPPM)
	v.SetDefault("matching.slic-net-stdev", m.SLiCNETStDev)
	v.SetDefault("matching.use-amt-net-stdev", m.UseAMTNETStDev)
	v.SetDefault("matching.auto-define-slic", m.AutoDefineSLiCScoreThresholds)
	v.SetDefault("matching.max-search-distance-multiplier", m.MaxSearchDistanceMultiplier)
	v.SetDefault("matching.use-slic", m.UseMaxSearchDistanceMultiplierAndSLiCScore)
	v.SetDefault("matching.ellipse", m.UseEllipseSearchRegion)
	v.SetDefault("matching.max-results", m.MaxResultsPerFeature)
	v.SetDefault("matching.bin-start", 0.0)
	v.SetDefault("matching.bin-end", 6000.0)
	v.SetDefault("matching.bin-width", 500.0)

	v.SetDefault("filter.pattern", "")
	v.SetDefault("filter.exclude-residues", "")
	v.SetDefault("filter.min-net", 0.0)
	v.SetDefault("filter.max-net", 0.0)
	v.SetDefault("filter.hydrophobicity-window", false)
	v.SetDefault("filter.min-hydrophobicity", 0.0)
	v.SetDefault("filter.max-hydrophobicity", 0.0)

	v.SetDefault("output.format", "sqlite")
	v.SetDefault("output.path", "")
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.namespace", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// New returns a viper instance with defaults and environment overrides
// registered.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the settings file, when there is one, and decodes v. An
// explicit file must exist; otherwise ./digestsim.yaml is read if present.
func Load(v *viper.Viper, file string) (Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("config: reading settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decoding settings: %w", err)
	}
	return s, nil
}

// Options converts the digestion settings.
func (c DigestionConfig) Options() (digest.Options, error) {
	rule, err := core.ParseRuleID(c.Rule)
	if err != nil {
		return digest.Options{}, err
	}
	cys, ok := core.ParseCysteineTreatment(c.Cysteine)
	if !ok {
		return digest.Options{}, fmt.Errorf("config: unknown cysteine treatment %q", c.Cysteine)
	}

	o := digest.Options{
		Rule:                           rule,
		MaxMissedCleavages:             c.MaxMissedCleavages,
		MinFragmentResidueCount:        c.MinResidues,
		MinFragmentMass:                c.MinMass,
		MaxFragmentMass:                c.MaxMass,
		FilterByIsoelectricPoint:       c.FilterPI,
		MinIsoelectricPoint:            c.MinPI,
		MaxIsoelectricPoint:            c.MaxPI,
		CysteineTreatment:              cys,
		RemoveDuplicateSequences:       c.RemoveDuplicates,
		IncludePrefixAndSuffixResidues: c.IncludeFlanking,
		ResidueFilter:                  c.ResidueFilter,
		ComputePI:                      c.ComputePI,
		ComputeHydrophobicity:          c.ComputeHydrophobicity,
		ComputeNET:                     c.ComputeNET,
	}
	switch strings.ToUpper(c.MassType) {
	case "", "M":
		o.BoundsMassType = digest.Neutral
	case "MH":
		o.BoundsMassType = digest.MH
	default:
		return digest.Options{}, fmt.Errorf("config: unknown mass type %q", c.MassType)
	}
	if c.AverageMass {
		o.ElementMode = core.Average
	}
	return o.Normalized(), nil
}

// Thresholds converts the matching settings.
func (c MatchingConfig) Thresholds() (match.SearchThresholds, error) {
	tolType, err := match.ParseMassToleranceType(c.MassToleranceType)
	if err != nil {
		return match.SearchThresholds{}, err
	}
	return match.SearchThresholds{
		MassTolerance:                 c.MassTolerance,
		MassToleranceType:             tolType,
		NETTolerance:                  c.NETTolerance,
		SLiCMassStDevPPM:              c.SLiCMassStDevPPM,
		SLiCNETStDev:                  c.SLiCNETStDev,
		UseAMTNETStDev:                c.UseAMTNETStDev,
		MaxSearchDistanceMultiplier:   c.MaxSearchDistanceMultiplier,
		UseEllipseSearchRegion:        c.Ellipse,
		MaxResultsPerFeature:          c.MaxResults,
		AutoDefineSLiCScoreThresholds: c.AutoDefineSLiC,

		UseMaxSearchDistanceMultiplierAndSLiCScore: c.UseSLiC,
	}, nil
}

// Filter converts the filter settings.
func (c FilterConfig) Filter() (*filter.Config, error) {
	f := &filter.Config{
		SequencePattern:      c.Pattern,
		ExcludeResidues:      c.ExcludeResidues,
		MinNET:               c.MinNET,
		MaxNET:               c.MaxNET,
		HydrophobicityWindow: c.HydrophobicityWindow,
		MinHydrophobicity:    c.MinHydrophobicity,
		MaxHydrophobicity:    c.MaxHydrophobicity,
	}
	if err := f.Compile(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return f, nil
}

// Dump renders every effective setting of v as YAML.
func Dump(v *viper.Viper) (string, error) {
	out, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return "", fmt.Errorf("config: encoding settings: %w", err)
	}
	return string(out), nil
}

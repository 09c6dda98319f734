package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadGateFile reads gate thresholds from a standalone YAML file. Fields left
// unset in the file keep the values already present in base, so a gate file
// can override a single threshold without restating the rest.
func LoadGateFile(path string, base GateConfig) (GateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, eris.Wrapf(err, "config: read gate file %s", path)
	}

	// The YAML has a top-level "gate" key.
	var wrapper struct {
		Gate gateFileOverrides `yaml:"gate"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return base, eris.Wrap(err, "config: parse gate file")
	}

	out := wrapper.Gate.apply(base)
	if err := out.Validate(); err != nil {
		return base, eris.Wrap(err, "config: gate file")
	}
	return out, nil
}

// gateFileOverrides mirrors GateConfig with pointer fields so absent keys are
// distinguishable from explicit zeros.
type gateFileOverrides struct {
	PromoteThreshold       *float64 `yaml:"promote_threshold"`
	HighPriorityThreshold  *float64 `yaml:"high_priority_threshold"`
	MoatGate               *int     `yaml:"moat_gate"`
	RequireFCFPositive     *bool    `yaml:"require_fcf_positive"`
	RequireROICAboveMedian *bool    `yaml:"require_roic_above_median"`
	RequireThesisIntact    *bool    `yaml:"require_thesis_intact"`
	MaxRiskFlags           *int     `yaml:"max_risk_flags"`
	NetDebtToEBITDAMax     *float64 `yaml:"net_debt_to_ebitda_max"`
}

func (o gateFileOverrides) apply(base GateConfig) GateConfig {
	if o.PromoteThreshold != nil {
		base.PromoteThreshold = *o.PromoteThreshold
	}
	if o.HighPriorityThreshold != nil {
		base.HighPriorityThreshold = *o.HighPriorityThreshold
	}
	if o.MoatGate != nil {
		base.MoatGate = *o.MoatGate
	}
	if o.RequireFCFPositive != nil {
		base.RequireFCFPositive = *o.RequireFCFPositive
	}
	if o.RequireROICAboveMedian != nil {
		base.RequireROICAboveMedian = *o.RequireROICAboveMedian
	}
	if o.RequireThesisIntact != nil {
		base.RequireThesisIntact = *o.RequireThesisIntact
	}
	if o.MaxRiskFlags != nil {
		base.MaxRiskFlags = *o.MaxRiskFlags
	}
	if o.NetDebtToEBITDAMax != nil {
		base.NetDebtToEBITDAMax = *o.NetDebtToEBITDAMax
	}
	return base
}

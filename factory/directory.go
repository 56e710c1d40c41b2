/*
Package factory turns directory configuration into the remittance
engine's reference data.

PURPOSE:
  The department universe and the funding rules are data, not code. A
  YAML document lists ministries with their departments (and optional
  contact emails) plus the two department override tables and the two
  ministry sets. Adding an override is a config change.

YAML SCHEMA:
  ministries:
    - name: "وزارة المالية"
      departments:
        - name: "مديرية تقاعد البصرة"
          email: "pension.basra@gov.iq"   # optional
  funding:
    departments:            # first tier, checked before everything else
      "<department>": self | central
    branches:               # second tier
      "<department>": central
    central_ministries: ["..."]
    self_ministries:    ["..."]

KEY FEATURES:
  - Validates funding labels (central/self or the Arabic labels)
  - Rejects duplicate ministries and duplicate departments per ministry
  - Warns (via Reference.Warnings) about override rules that name no
    directory department and about names shared across ministries
  - Ships the Basra directory embedded in the binary (Default)

USAGE:
  ref, err := factory.Default()
  ref, err := factory.LoadFile("/etc/remittance/directory.yaml")
  engine := remittance.NewEngine(ref.Directory, ref.Classifier, baseline)

SEE ALSO:
  - remittance/classifier.go: lookup order
  - remittance/directory.go:  Directory type
*/
package factory

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/remittance-engine/remittance"
)

//go:embed basra.yaml
var basraYAML []byte

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// DirectoryYAML is the document root.
type DirectoryYAML struct {
	Ministries []MinistryYAML `yaml:"ministries"`
	Funding    FundingYAML    `yaml:"funding"`
}

type MinistryYAML struct {
	Name        string           `yaml:"name"`
	Departments []DepartmentYAML `yaml:"departments"`
}

type DepartmentYAML struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email,omitempty"`
}

type FundingYAML struct {
	Departments       map[string]string `yaml:"departments"`
	Branches          map[string]string `yaml:"branches"`
	CentralMinistries []string          `yaml:"central_ministries"`
	SelfMinistries    []string          `yaml:"self_ministries"`
}

// =============================================================================
// REFERENCE - parsed result
// =============================================================================

// Reference bundles the directory with the classifier built from the same
// document.
type Reference struct {
	Directory  *remittance.Directory
	Classifier *remittance.Classifier
	Rules      remittance.FundingRules
	// Warnings are non-fatal inconsistencies worth logging.
	Warnings []string
}

// Default parses the embedded Basra directory.
func Default() (*Reference, error) {
	return Parse(basraYAML)
}

// DefaultYAML returns the embedded document.
func DefaultYAML() []byte {
	out := make([]byte, len(basraYAML))
	copy(out, basraYAML)
	return out
}

// LoadFile parses the document at path. An empty path means Default.
func LoadFile(path string) (*Reference, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Reference from a YAML document.
func Parse(data []byte) (*Reference, error) {
	var doc DirectoryYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}
	return Build(doc)
}

// Build converts an already-decoded document.
func Build(doc DirectoryYAML) (*Reference, error) {
	ministries := make([]remittance.Ministry, 0, len(doc.Ministries))
	for _, m := range doc.Ministries {
		deps := make([]remittance.Department, 0, len(m.Departments))
		for _, d := range m.Departments {
			deps = append(deps, remittance.Department{Name: d.Name, Email: d.Email})
		}
		ministries = append(ministries, remittance.Ministry{Name: m.Name, Departments: deps})
	}
	dir, err := remittance.NewDirectory(ministries)
	if err != nil {
		return nil, err
	}

	rules := remittance.FundingRules{
		CentralMinistries: doc.Funding.CentralMinistries,
		SelfMinistries:    doc.Funding.SelfMinistries,
	}
	if rules.DepartmentOverrides, err = parseTable("funding.departments", doc.Funding.Departments); err != nil {
		return nil, err
	}
	if rules.BranchOverrides, err = parseTable("funding.branches", doc.Funding.Branches); err != nil {
		return nil, err
	}

	ref := &Reference{
		Directory:  dir,
		Classifier: remittance.NewClassifier(rules),
		Rules:      rules,
	}
	ref.Warnings = lint(dir, rules)
	return ref, nil
}

func parseTable(section string, raw map[string]string) (map[string]remittance.FundingType, error) {
	out := make(map[string]remittance.FundingType, len(raw))
	for dept, label := range raw {
		ft, ok := remittance.ParseFundingType(label)
		if !ok || ft == remittance.FundingUnknown {
			return nil, fmt.Errorf("%s: invalid funding type %q for %q", section, label, dept)
		}
		out[dept] = ft
	}
	return out, nil
}

// lint reports overrides and ministry rules that match nothing, and
// department names that are not unique across ministries.
func lint(dir *remittance.Directory, rules remittance.FundingRules) []string {
	names := make(map[string]bool)
	ministries := make(map[string]bool)
	for _, ref := range dir.All() {
		names[ref.Department] = true
		ministries[ref.Ministry] = true
	}

	var warnings []string
	for _, table := range []map[string]remittance.FundingType{rules.DepartmentOverrides, rules.BranchOverrides} {
		for dept := range table {
			if !names[dept] {
				warnings = append(warnings, fmt.Sprintf("funding override for unknown department %q", dept))
			}
		}
	}
	for _, m := range append(append([]string{}, rules.CentralMinistries...), rules.SelfMinistries...) {
		if !ministries[m] {
			warnings = append(warnings, fmt.Sprintf("funding rule for unknown ministry %q", m))
		}
	}
	for _, name := range dir.AmbiguousNames() {
		warnings = append(warnings, fmt.Sprintf("department name %q appears under several ministries", name))
	}
	return warnings
}

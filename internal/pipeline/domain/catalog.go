package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TemplateEntry is one line of the due-diligence task catalog. Offsets are
// relative to the schedule anchor; several entries start on day 0 on purpose,
// the workstreams run in parallel.
type TemplateEntry struct {
	Category      TaskCategory `yaml:"category"`
	Name          string       `yaml:"name"`
	DaysFromStart int          `yaml:"days_from_start"`
	DurationDays  int          `yaml:"duration_days"`
	Priority      string       `yaml:"priority"`
}

// defaultCatalog is the house due-diligence process. Changing it never
// touches already-generated task batches.
var defaultCatalog = []TemplateEntry{
	{CategoryLegal, "LPA review", 0, 7, PriorityHigh},
	{CategoryLegal, "KYC/AML screening", 0, 10, PriorityHigh},
	{CategoryAnalysis, "Internal investment analysis", 0, 14, PriorityHigh},
	{CategoryAnalysis, "Track record analysis", 0, 10, PriorityHigh},
	{CategoryAnalysis, "Market and strategy review", 3, 10, PriorityMedium},
	{CategoryLegal, "Side letter negotiation", 7, 14, PriorityMedium},
	{CategoryTax, "Fund structure review", 7, 14, PriorityHigh},
	{CategoryTax, "Tax treaty analysis", 7, 10, PriorityMedium},
	{CategoryAnalysis, "Team reference calls", 7, 10, PriorityMedium},
	{CategoryLegal, "Regulatory clearance review", 10, 7, PriorityMedium},
	{CategoryAnalysis, "Portfolio company sampling", 10, 7, PriorityLow},
	{CategoryLegal, "Subscription documents review", 14, 10, PriorityMedium},
	{CategoryTax, "FATCA/CRS classification", 14, 7, PriorityMedium},
	{CategoryAnalysis, "IC memo drafting", 14, 7, PriorityHigh},
	{CategoryTax, "Withholding tax assessment", 17, 7, PriorityLow},
	{CategoryLegal, "Legal opinion collection", 21, 7, PriorityLow},
	{CategoryAnalysis, "IC vote", 21, 2, PriorityHigh},
	{CategoryTax, "Tax opinion sign-off", 28, 5, PriorityMedium},
	{CategoryAdmin, "Wire instructions and account setup", 30, 5, PriorityMedium},
	{CategoryAdmin, "CRM and reporting setup", 32, 3, PriorityLow},
	{CategoryLegal, "Signature and closing", 35, 2, PriorityHigh},
}

// DefaultCatalog returns a copy of the built-in catalog.
func DefaultCatalog() []TemplateEntry {
	catalog := make([]TemplateEntry, len(defaultCatalog))
	copy(catalog, defaultCatalog)
	return catalog
}

// LoadCatalog reads a catalog from a yaml file, falling back to the built-in
// catalog when path is empty.
func LoadCatalog(path string) ([]TemplateEntry, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog []TemplateEntry
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// ValidateCatalog checks every entry for a known category, a name, and sane
// offsets.
func ValidateCatalog(catalog []TemplateEntry) error {
	if len(catalog) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidCatalog)
	}
	for i, entry := range catalog {
		if _, err := ParseTaskCategory(string(entry.Category)); err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrInvalidCatalog, i, err)
		}
		if entry.Name == "" {
			return fmt.Errorf("%w: entry %d: empty name", ErrInvalidCatalog, i)
		}
		if entry.DaysFromStart < 0 {
			return fmt.Errorf("%w: entry %d: negative offset", ErrInvalidCatalog, i)
		}
		if entry.DurationDays < 1 {
			return fmt.Errorf("%w: entry %d: duration under one day", ErrInvalidCatalog, i)
		}
		if !ValidPriority(entry.Priority) {
			return fmt.Errorf("%w: entry %d: priority %q", ErrInvalidCatalog, i, entry.Priority)
		}
	}
	return nil
}

package domain

import "fmt"

// Category identifies which of the documented CMS public-use file layouts
// a source file follows. The three layouts share the loading pipeline but
// carry different canonical fields.
type Category string

const (
	// CategoryStateLevel is the state-level enrollment PUF: one row per
	// state with enrollment totals, premiums, and demographic breakdowns.
	CategoryStateLevel Category = "state-level"

	// CategoryCountyLevel is the county-level enrollment PUF: one row per
	// county with enrollment totals and premium averages.
	CategoryCountyLevel Category = "county-level"

	// CategoryPlanDesign is the plan-design PUF: one row per
	// state/metal-level/CSR-variant combination with plan counts,
	// selections, and cost-sharing amounts.
	CategoryPlanDesign Category = "plan-design"
)

// AllCategories returns the categories in their documented order.
func AllCategories() []Category {
	return []Category{CategoryStateLevel, CategoryCountyLevel, CategoryPlanDesign}
}

// String returns the category name as used in logs and file classification.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the category is one of the documented layouts.
func (c Category) IsValid() bool {
	switch c {
	case CategoryStateLevel, CategoryCountyLevel, CategoryPlanDesign:
		return true
	}
	return false
}

// ParseCategory converts a string into a Category, accepting the canonical
// names used in configuration and CLI flags.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown file category: %q (want one of %v)", s, AllCategories())
	}
	return c, nil
}

package domain

// Canonical field names. Source files name these columns differently from
// year to year; the schema package maps every documented 2014-2024 header
// variant onto the constants below. All downstream code (metrics, exporters,
// CLIs) addresses columns exclusively by canonical name.
const (
	// Shared identity fields.
	FieldState    = "state"
	FieldPlanYear = "plan_year"

	// State-level enrollment fields.
	FieldPlatform                = "platform"
	FieldTotalEnrollment         = "total_enrollment"
	FieldNewEnrollment           = "new_enrollment"
	FieldReturningEnrollment     = "returning_enrollment"
	FieldAveragePremium          = "average_premium"
	FieldAveragePremiumAfterAPTC = "average_premium_after_aptc"
	FieldConsumersWithAPTC       = "consumers_with_aptc"
	FieldAverageAPTC             = "average_aptc"
	FieldConsumersWithCSR        = "consumers_with_csr"

	// Demographic breakdowns (state-level).
	FieldMale      = "male"
	FieldFemale    = "female"
	FieldAge0To17  = "age_0_17"
	FieldAge18To25 = "age_18_25"
	FieldAge26To34 = "age_26_34"
	FieldAge35To44 = "age_35_44"
	FieldAge45To54 = "age_45_54"
	FieldAge55To64 = "age_55_64"
	FieldAgeOver65 = "age_over_65"
	FieldRural     = "rural"
	FieldNonRural  = "non_rural"

	// Metal-level selection counts (state-level wide columns).
	FieldBronze       = "bronze"
	FieldSilver       = "silver"
	FieldGold         = "gold"
	FieldPlatinum     = "platinum"
	FieldCatastrophic = "catastrophic"

	// Plan availability and population context (optional in some vintages).
	FieldPlansAvailable = "plans_available"
	FieldPopulation     = "population"

	// County-level fields.
	FieldFIPS         = "fips"
	FieldCounty       = "county"
	FieldMedianIncome = "median_income"

	// Plan-design fields.
	FieldMetalLevel         = "metal_level"
	FieldCSRVariant         = "csr_variant"
	FieldPlanSelections     = "plan_selections"
	FieldPlansOffered       = "plans_offered"
	FieldHSAEligible        = "hsa_eligible"
	FieldDeductible         = "deductible"
	FieldCombinedDeductible = "combined_deductible"
	FieldMOOP               = "moop"

	// FieldIncludeInCostSharing is derived during normalization, never read
	// from the source file: 1 for rows that belong in deductible/MOOP
	// aggregates, 0 for AI/AN zero- and limited-cost-sharing variants.
	FieldIncludeInCostSharing = "include_in_cost_sharing"
)

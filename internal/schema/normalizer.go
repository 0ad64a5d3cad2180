package schema

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// Normalizer maps raw header+rows onto canonical tables. One instance parses
// the embedded alias table at construction and is safe for concurrent use
// afterwards: normalization itself touches no shared state.
type Normalizer struct {
	logger  *slog.Logger
	schemas map[domain.Category][]FieldSpec
}

// NewNormalizer creates a normalizer from the embedded alias table.
func NewNormalizer(logger *slog.Logger) (*Normalizer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	schemas, err := loadSchemas()
	if err != nil {
		return nil, apperrors.NewConfigError("load schema alias table", err)
	}

	return &Normalizer{
		logger:  logger,
		schemas: schemas,
	}, nil
}

// Fields returns the canonical field specs for a category, in table order.
func (n *Normalizer) Fields(category domain.Category) []FieldSpec {
	return append([]FieldSpec(nil), n.schemas[category]...)
}

// Normalize builds a canonical table from one source file's header and data
// rows. A required field with no matching column fails the whole file with a
// schema error; per-cell problems are tolerated, counted, and replaced with
// the field's sentinel. Rows keep their source order; fully blank rows are
// dropped.
func (n *Normalizer) Normalize(ctx context.Context, category domain.Category, header []string, rows [][]string) (*domain.Table, error) {
	specs, ok := n.schemas[category]
	if !ok {
		return nil, apperrors.NewValidationError("no schema for category " + category.String())
	}

	columns := resolveColumns(specs, header)

	builder := domain.NewTableBuilder(category)
	for _, spec := range specs {
		if _, matched := columns[spec.Name]; !matched {
			if spec.Required {
				return nil, apperrors.NewSchemaError(category.String(), spec.Name, nil).
					WithContext("header", header)
			}
			builder.MarkMissingOptional(spec.Name)
		}
		if spec.Type == TypeNumber {
			builder.AddNumberColumn(spec.Name)
		} else {
			builder.AddTextColumn(spec.Name)
		}
	}
	if category == domain.CategoryPlanDesign {
		builder.AddNumberColumn(domain.FieldIncludeInCostSharing)
	}

	builder.SetSourceRows(len(rows))

	kept := 0
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		kept++
		n.appendRow(builder, category, specs, columns, row)
	}

	n.logger.DebugContext(ctx, "normalized rows",
		slog.String("category", category.String()),
		slog.Int("source_rows", len(rows)),
		slog.Int("kept_rows", kept))

	table, err := builder.Build()
	if err != nil {
		return nil, apperrors.NewSchemaError(category.String(), "", err)
	}
	return table, nil
}

// appendRow coerces one source row into the builder, applying the documented
// business rules for the category.
func (n *Normalizer) appendRow(builder *domain.TableBuilder, category domain.Category, specs []FieldSpec, columns map[string]int, row []string) {
	cell := func(field string) (string, bool) {
		idx, ok := columns[field]
		if !ok {
			return "", false
		}
		// Short rows read as empty cells, which coerce to the sentinel.
		if idx >= len(row) {
			return "", true
		}
		return strings.TrimSpace(row[idx]), true
	}

	for _, spec := range specs {
		raw, present := cell(spec.Name)

		if spec.Type == TypeText {
			value := raw
			// Counties without a name fall back to their FIPS code so
			// grouping keys stay non-empty.
			if category == domain.CategoryCountyLevel && spec.Name == domain.FieldCounty && value == "" {
				value, _ = cell(domain.FieldFIPS)
			}
			// Older vintages spell states out in full; fold to codes so
			// "Texas" and "TX" group together.
			if spec.Name == domain.FieldState {
				value = canonicalState(value)
			}
			builder.AppendText(spec.Name, value)
			continue
		}

		if !present {
			builder.AppendNumber(spec.Name, 0)
			continue
		}

		// The deductible ladder is applied here, during normalization:
		// "Not Applicable" (or a suppressed cell) falls back to the
		// combined medical+drug deductible, then to 0.
		if category == domain.CategoryPlanDesign && spec.Name == domain.FieldDeductible {
			combined, _ := cell(domain.FieldCombinedDeductible)
			value, suppressed := deductibleValue(raw, combined)
			if suppressed {
				builder.CountSuppressed(spec.Name)
			}
			builder.AppendNumber(spec.Name, value)
			continue
		}

		switch value, outcome := coerceNumber(raw); outcome {
		case coerceOK:
			builder.AppendNumber(spec.Name, value)
		case coerceSuppressed:
			builder.CountSuppressed(spec.Name)
			builder.AppendNumber(spec.Name, 0)
		default:
			builder.CountParseFailure(spec.Name)
			builder.AppendNumber(spec.Name, 0)
		}
	}

	if category == domain.CategoryPlanDesign {
		variant, _ := cell(domain.FieldCSRVariant)
		builder.AppendNumber(domain.FieldIncludeInCostSharing, costSharingFlag(variant))
	}
}

type coerceOutcome int

const (
	coerceOK coerceOutcome = iota
	coerceSuppressed
	coerceFailed
)

// coerceNumber parses a numeric cell after stripping currency and grouping
// characters. CMS suppression markers map to the sentinel without being
// treated as malformed data.
func coerceNumber(raw string) (float64, coerceOutcome) {
	if isSuppressed(raw) {
		return 0, coerceSuppressed
	}
	value, ok := parseNumber(raw)
	if !ok {
		return 0, coerceFailed
	}
	return value, coerceOK
}

// parseNumber strips $, %, commas, and interior spaces before parsing.
func parseNumber(raw string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", "%", "", ",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// isSuppressed reports whether the cell carries one of the CMS suppression
// markers used for small counts, or is empty.
func isSuppressed(raw string) bool {
	switch strings.ToUpper(raw) {
	case "", "NR", "*", "**", "+":
		return true
	}
	return false
}

// isNotApplicable matches the plan-design files' explicit non-value.
func isNotApplicable(raw string) bool {
	switch strings.ToLower(raw) {
	case "not applicable", "n/a":
		return true
	}
	return false
}

// deductibleValue applies the deductible defaulting ladder: a parseable
// in-network medical deductible wins; "Not Applicable" and suppressed cells
// fall back to the combined deductible; anything still unusable is 0.
// The returned flag reports whether the cell counted as suppressed.
func deductibleValue(raw, combined string) (float64, bool) {
	if !isNotApplicable(raw) && !isSuppressed(raw) {
		if value, ok := parseNumber(raw); ok {
			return value, false
		}
		// Malformed rather than absent: no ladder, sentinel.
		return 0, false
	}

	suppressed := isSuppressed(raw)
	if value, ok := parseNumber(combined); ok {
		return value, suppressed
	}
	return 0, suppressed
}

// costSharingFlag derives include_in_cost_sharing from the CSR variant:
// AI/AN zero- and limited-cost-sharing rows are excluded from deductible
// and MOOP aggregates while still counting toward enrollment sums.
func costSharingFlag(variant string) float64 {
	v := strings.ToLower(variant)
	switch {
	case strings.Contains(v, "zero cost sharing"),
		strings.Contains(v, "limited cost sharing"),
		strings.Contains(v, "ai/an"),
		strings.Contains(v, "american indian"):
		return 0
	}
	return 1
}

// isBlankRow reports whether every cell of the row is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

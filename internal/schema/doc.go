// Package schema normalizes raw CMS public use file rows onto the canonical
// field set used by the rest of the pipeline.
//
// Source files rename their columns from vintage to vintage. The embedded
// alias table (aliases.yml) maps every documented 2014-2024 header variant
// onto a canonical field name; resolution is an explicit lookup so
// normalization stays reproducible. Business rules documented in the CMS
// methodology, such as the deductible defaulting ladder and the exclusion of
// AI/AN zero-cost-sharing variants from cost-sharing aggregates, are applied
// here during normalization, not deferred to metric time.
package schema

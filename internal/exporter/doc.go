// Package exporter writes the pipeline's output artifacts: the per-unit
// clean workbooks (merged table plus derived columns, persisted for audit
// before any KPI is reported) and the consolidated efficiency results as
// CSV and XLSX.
package exporter

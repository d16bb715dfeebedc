// Package io reads the inputs of a sequencing run and writes its report.
//
// # Inputs
//
// Three files feed a run. All of them may start with a UTF-8 byte order mark,
// which spreadsheet tools tend to add.
//
// The BOM analysis ([ReadAnalysis]) lists one job per row:
//
//	Item_Code,Layer,Common_Count,Individual_Count,Common_Materials,Individual_Materials
//	EP94-04976A,Top,12,3,"C1,C2,...","M1,M2,M3"
//
// The item schedule ([ReadSchedule]) carries quantity and production time.
// Its T_B column is "T" or "B"; rows with any other value are skipped:
//
//	Item_Code,T_B,Qty,Prod_Time
//	EP94-04976A,T,120,42.5
//
// The common-material list ([ReadCommonMaterials]) has one identifier per
// row in its first column.
//
// Run controls can be given as strings ([ParseManual], [ParsePriority]) or
// as a YAML plan ([ReadPlan]):
//
//	priority: [EP94-04976A]
//	layer_mode: TB
//	quality: balanced
//	timeout: 10s
//
// A plan with a manual list switches the run to manual mode:
//
//	manual:
//	  - {item: EP94-04976A, layer: Top}
//	  - {item: EP94-04820A, layer: Bottom}
//
// # Outputs
//
// [WriteCSV] writes the sequence report in the column order downstream
// spreadsheets expect, with a byte order mark so they detect UTF-8.
// [WriteJSON] writes a [Report], which [ReadReport] reads back.
//
// Every Read function has an Import counterpart that opens a path.
// A missing file yields a FILE_NOT_FOUND error from package errors.
package io

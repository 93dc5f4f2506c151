// Package dataset loads the six survey CSV snapshots behind the dashboard.
//
// Each file is read once at startup into typed records:
//
//	PAP         project affected persons (PAPs_clean.csv)
//	Worker      site workers (workers_clean.csv)
//	Contractor  contractor sites (contractors_clean.csv)
//	GRC         grievance redress committees (GRC_clean.csv)
//	District    district summaries (district_clean.csv)
//	Checklist   the single-site audit checklist (checklist_clean.csv)
//
// Columns are located by header name. A column absent from a file yields
// zero values, so older snapshots keep loading. Loaders also apply the
// cleaning rules of the survey team (name remaps, trimming, title casing)
// and compute the derived ratio and score columns the pages rely on.
//
// A missing file is not an error: LoadAll marks the dataset as not loaded
// and the pages render a "<file> not found." placeholder. A file that
// cannot be parsed fails startup with a PARSING error.
//
// Example:
//
//	store, err := dataset.LoadAll(ctx, dataset.FilesFromPaths(paths), logger, metrics)
//	if err != nil {
//		return err
//	}
//	for _, st := range store.Statuses() {
//		fmt.Println(st.Name, st.Loaded, st.Rows)
//	}
package dataset

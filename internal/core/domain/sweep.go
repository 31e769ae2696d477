package domain

// Removal records one file a sweep removed (or would remove) and why.
type Removal struct {
	Path   string
	Reason string
}

// SweepReport summarises a janitor pass.
type SweepReport struct {
	Scanned  int
	Removals []Removal
	Bytes    int64
}

// SweepOptions configures a janitor pass.
type SweepOptions struct {
	// DryRun reports removals without deleting anything.
	DryRun bool

	// Classes limits the pass to specific size tiers. Empty means all.
	Classes []SizeClass
}

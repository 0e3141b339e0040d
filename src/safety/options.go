package safety

// Options carries the global safety flags of the CLI.
type Options struct {
	// DryRun prints planned actions without performing them.
	DryRun bool
	// Yes answers every confirmation prompt with yes.
	Yes bool
	// Force allows replacing existing files.
	Force bool
}

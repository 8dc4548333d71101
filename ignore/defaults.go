package ignore

const (
	// DefaultSkipName is the directory name omitted from traversal when none is configured.
	DefaultSkipName = "Library"

	// DefaultIgnoreFile is the gitignore-syntax file read from the root directory, if present.
	DefaultIgnoreFile = ".findexignore"
)

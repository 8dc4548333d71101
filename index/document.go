package index

// Entry is a single indexed filesystem entry.
type Entry struct {
	Name string `json:"name"` // Final path segment, extension included
	Path string `json:"path"` // Absolute filesystem location
}

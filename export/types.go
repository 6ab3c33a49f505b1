package export

import "time"

// Options controls what goes into an archive.
type Options struct {
	// ProjectIDs limits the export to the given projects. Empty means
	// every project on the board, archived ones included.
	ProjectIDs []string

	// Format names the registered document format used for task files.
	// Empty means formats.DefaultFormat.
	Format string
}

// File is a single entry of a planned archive.
type File struct {
	// Name is the path inside the archive, always forward-slashed.
	Name string

	// Modified becomes the entry's timestamp in the zip directory.
	Modified time.Time

	Body []byte
}

// Manifest describes an archive to whoever unpacks it later.
type Manifest struct {
	Tool        string    `yaml:"tool"`
	Version     string    `yaml:"version"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Format      string    `yaml:"format"`
	Projects    int       `yaml:"projects"`
	Tasks       int       `yaml:"tasks"`
	Milestones  int       `yaml:"milestones"`
	Members     int       `yaml:"members"`
}

// Archive is the fully assembled export, ready to be written out.
// Building it does not touch the filesystem.
type Archive struct {
	// Name is the suggested file name for the zip, derived from the
	// generation time.
	Name string

	Files    []File
	Manifest Manifest
}

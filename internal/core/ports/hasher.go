package ports

// Hasher computes content hashes of files and directory trees.
type Hasher interface {
	// ComputeFileHash returns the hash of a file's content.
	ComputeFileHash(path string) (uint64, error)
	// ComputeTreeHash returns a single hash over every file below root, paths included.
	ComputeTreeHash(root string) (string, error)
}

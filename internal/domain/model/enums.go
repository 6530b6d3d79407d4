package model

// FileStatus represents a document's state relative to the diff base.
type FileStatus string

const (
	FileStatusNew       FileStatus = "new"
	FileStatusModified  FileStatus = "modified"
	FileStatusDeleted   FileStatus = "deleted"
	FileStatusUnchanged FileStatus = "unchanged"
	FileStatusChanged   FileStatus = "changed"
)

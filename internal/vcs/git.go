package vcs

// GitBackend queries git. The revision is diffed against the working tree.
type GitBackend struct{}

func (GitBackend) Name() string       { return "git" }
func (GitBackend) Command() string    { return "git" }
func (GitBackend) DefaultRev() string { return "HEAD~1" }
func (GitBackend) RootArgs() []string { return []string{"rev-parse", "--show-toplevel"} }

func (GitBackend) ChangedFilesArgs(rev string) []string {
	return []string{"diff", "--name-only", "-z", rev, "--"}
}

func (GitBackend) ParseChangedFiles(out []byte) []string {
	return splitNUL(out)
}

package vcs

import "bytes"

// filesTemplate ends each revision's file list with NUL so lists from
// adjacent revisions never run together.
const filesTemplate = `{join(files,"\0")}\0`

// HgBackend queries Mercurial.
type HgBackend struct{}

func (HgBackend) Name() string       { return "hg" }
func (HgBackend) Command() string    { return "hg" }
func (HgBackend) DefaultRev() string { return "wdir() + ." }
func (HgBackend) RootArgs() []string { return []string{"root"} }

func (HgBackend) ChangedFilesArgs(rev string) []string {
	return []string{"log", "-T", filesTemplate, "-r", rev}
}

func (HgBackend) ParseChangedFiles(out []byte) []string {
	return splitNUL(out)
}

// SaplingBackend queries Sapling, which shares Mercurial's revsets and
// templates.
type SaplingBackend struct{ HgBackend }

func (SaplingBackend) Name() string    { return "sl" }
func (SaplingBackend) Command() string { return "sl" }

func splitNUL(out []byte) []string {
	var paths []string
	for _, field := range bytes.Split(out, []byte{0}) {
		field = bytes.TrimRight(field, "\r\n")
		if len(field) == 0 {
			continue
		}
		paths = append(paths, string(field))
	}
	return paths
}

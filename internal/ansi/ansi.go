// Package ansi holds the SGR escape codes the stderr printer styles its
// output with.
package ansi

// SGR codes. Every styled span ends with Reset.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
)

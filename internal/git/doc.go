// Package git wraps stage/diff/commit/push operations against a single
// working tree. It is a thin gateway: no scheduling or message logic lives
// here. Most operations go through go-git; the staged textual diff shells out
// to the git binary, which go-git has no porcelain for.
package git

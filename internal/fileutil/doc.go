// Package fileutil writes output files so that readers never observe a
// partially written file.
package fileutil

// Package textutil sanitizes user-supplied text for use in file names.
package textutil

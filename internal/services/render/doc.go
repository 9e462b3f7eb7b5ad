// Package render produces edit variation files by invoking ffmpeg with
// trim and speed filters.
package render

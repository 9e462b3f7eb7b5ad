// Package silencedetect finds low-energy audio spans by running ffmpeg's
// silencedetect filter and parsing its log output.
package silencedetect

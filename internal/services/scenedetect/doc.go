// Package scenedetect finds visual scene changes by running ffmpeg's scene
// filter and parsing the metadata it prints. The detector is threshold
// sensitive; the cutoff comes from configuration and is passed per call.
package scenedetect

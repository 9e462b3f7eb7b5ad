// Package ffprobe wraps ffprobe JSON inspection of media containers. The
// analysis pipeline uses it to learn a clip's duration before reconciling
// signal streams against it.
package ffprobe

// Package transcribe wraps the whisper CLI to produce word-level
// transcripts for analyzed clips.
package transcribe

// Package audio plays short sound cues for widget interactions.
// It uses the beep library to decode WAV, OGG and MP3 files, caches the
// decoded samples and applies a linear volume.
package audio

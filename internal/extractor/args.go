package extractor

// BuildAudioArgs constructs ffmpeg arguments that pull the audio stream out
// of inputPath as a VBR MP3.
func BuildAudioArgs(inputPath, outputPath string, includeProgress bool) []string {
	args := []string{
		"-y",
		"-i", inputPath,
		"-q:a", "0",
		"-map", "a",
	}
	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	return append(args, outputPath)
}

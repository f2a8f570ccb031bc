package domain

// KeyPrefix namespaces every key the service writes.
var KeyPrefix = "keywordlab:"

// SetKeyPrefix overrides the key namespace (storage.key_prefix). Call once at startup.
func SetKeyPrefix(prefix string) {
	if prefix != "" {
		KeyPrefix = prefix
	}
}

// PipelineConfig holds the tunables of the research pipeline.
type PipelineConfig struct {
	SuggestionCount        int
	MaxVolumeCheckKeywords int
	MinClusterKeywords     int
}

// DefaultPipelineConfig returns the defaults used when config leaves a value unset.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SuggestionCount:        10,
		MaxVolumeCheckKeywords: 60,
		MinClusterKeywords:     5,
	}
}

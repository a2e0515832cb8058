package pipeline

// Usage counts the outbound work one run performed. It is owned by the run
// and returned with the result; the pipeline keeps no ambient counters.
type Usage struct {
	SearchCalls        int `json:"searchCalls"`
	Extractions        int `json:"extractions"`
	ExtractionFailures int `json:"extractionFailures"`
	Validated          int `json:"validated"`
	Invalid            int `json:"invalid"`
	CacheHits          int `json:"cacheHits"`
	CacheMisses        int `json:"cacheMisses"`
	Synthesized        int `json:"synthesized"`
}

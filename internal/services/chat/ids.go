package chat

// Messages produced by one submission share the submission's request id
func LoadingID(requestID string) string  { return "loading-" + requestID }
func ResponseID(requestID string) string { return "response-" + requestID }
func ErrorID(requestID string) string    { return "error-" + requestID }

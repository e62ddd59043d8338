package extract

import "strings"

const (
	// MaxTopics bounds how many topics a single item can link
	MaxTopics = 5
	// maxTopicLen drops runaway fragments from a malformed LLM answer
	maxTopicLen = 50
)

// ParseTopicList parses an LLM "comma-separated topics" answer into clean
// topic strings: trimmed, bounded in length, capped at MaxTopics.
func ParseTopicList(response string) []string {
	// Models sometimes prefix the list ("Topics: a, b, c")
	if idx := strings.Index(response, ":"); idx >= 0 && idx < 20 {
		response = response[idx+1:]
	}

	var topics []string
	for _, part := range strings.Split(response, ",") {
		topic := strings.Trim(strings.TrimSpace(part), `."'`)
		if topic == "" || len(topic) >= maxTopicLen {
			continue
		}
		topics = append(topics, topic)
		if len(topics) == MaxTopics {
			break
		}
	}
	return topics
}

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTopicList_Basic(t *testing.T) {
	topics := ParseTopicList("budget planning, Q3 forecast, hiring")
	assert.Equal(t, []string{"budget planning", "Q3 forecast", "hiring"}, topics)
}

func TestParseTopicList_StripsPrefix(t *testing.T) {
	topics := ParseTopicList("Topics: roadmap, launch plan")
	assert.Equal(t, []string{"roadmap", "launch plan"}, topics)
}

func TestParseTopicList_TrimsQuotesAndPeriods(t *testing.T) {
	topics := ParseTopicList(`"budget", 'forecast', hiring.`)
	assert.Equal(t, []string{"budget", "forecast", "hiring"}, topics)
}

func TestParseTopicList_CapsAtMaxTopics(t *testing.T) {
	topics := ParseTopicList("a, b, c, d, e, f, g")
	assert.Len(t, topics, MaxTopics)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, topics)
}

func TestParseTopicList_DropsEmptyAndRunaway(t *testing.T) {
	long := strings.Repeat("x", 80)
	topics := ParseTopicList("budget, , " + long + ", forecast")
	assert.Equal(t, []string{"budget", "forecast"}, topics)
}

func TestParseTopicList_Empty(t *testing.T) {
	assert.Empty(t, ParseTopicList(""))
	assert.Empty(t, ParseTopicList("   "))
}

func TestHTMLText_StripsMarkup(t *testing.T) {
	html := `<html><head><title>ignore</title><style>p{color:red}</style></head>
<body>
  <p>Quarterly  budget</p>
  <script>alert(1)</script>
  <div>review</div>
</body></html>`
	assert.Equal(t, "Quarterly budget review", HTMLText(html))
}

func TestHTMLText_PlainTextPassthrough(t *testing.T) {
	assert.Equal(t, "already plain", HTMLText("  already plain  "))
}

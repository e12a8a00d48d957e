package query

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/recall/internal/timestamp"
)

// FallbackAnswer is returned when the reply carries no usable answer text.
const FallbackAnswer = "No answer provided."

// Markers used in the reply contract.
const (
	AnswerTag        = "answer"
	RelevantImageTag = "relevant_image"
)

const promptTemplate = `You are the memory of a person wearing smart glasses. Below is everything the glasses have recorded so far: speech transcripts and descriptions of images the camera captured. Every entry carries the timestamp (YYYY-MM-DD-HH-MM-SS, local time) at which it was captured.

<context>
{{CONTEXT}}
</context>

Answer the question below using only the recorded context.

Rules:
- Always write a complete natural-language answer inside <answer></answer> tags, even when the context does not contain the information; in that case say so.
- When several entries are relevant, prefer the most recent ones.
- If one specific captured image is directly relevant to the answer, cite its timestamp exactly once, after the closing </answer> tag, as <relevant_image>TIMESTAMP</relevant_image>. Only cite timestamps that appear in an <image_description> entry. Omit the tag otherwise.

<question>
{{QUESTION}}
</question>`

// ComposePrompt embeds the rendered context and the question into the
// instruction template.
func ComposePrompt(contextText, question string) string {
	r := strings.NewReplacer("{{CONTEXT}}", contextText, "{{QUESTION}}", question)
	return r.Replace(promptTemplate)
}

var (
	relevantImageRe = regexp.MustCompile(`(?s)<relevant_image>\s*(.*?)\s*</relevant_image>`)
	answerRe        = regexp.MustCompile(`(?s)<answer>(.*?)</answer>`)

	answerOpen        = "<" + AnswerTag + ">"
	relevantImageOpen = "<" + RelevantImageTag + ">"
)

// ParseReply extracts the answer and the optional cited timestamp from a
// model reply.
//
// The first citation marker's payload becomes CitedTimestamp and every marker
// is removed from the text. If an <answer> block is present its body is the
// answer, otherwise the remaining text is. A reply cut off by the token
// budget may leave a tag unclosed: an unclosed <answer> opener is dropped,
// and an unclosed trailing citation is cut from the text and still counts
// when its payload is a complete timestamp. An empty answer becomes
// FallbackAnswer; ParseReply never fails.
func ParseReply(reply string) Result {
	var res Result

	if m := relevantImageRe.FindStringSubmatch(reply); m != nil {
		res.CitedTimestamp = strings.TrimSpace(m[1])
	}
	stripped := relevantImageRe.ReplaceAllString(reply, "")

	if i := strings.Index(stripped, relevantImageOpen); i >= 0 {
		payload := strings.TrimSpace(stripped[i+len(relevantImageOpen):])
		if res.CitedTimestamp == "" && timestamp.Valid(payload) {
			res.CitedTimestamp = payload
		}
		stripped = stripped[:i]
	}

	answer := stripped
	if m := answerRe.FindStringSubmatch(stripped); m != nil {
		answer = m[1]
	} else if i := strings.Index(stripped, answerOpen); i >= 0 {
		answer = stripped[i+len(answerOpen):]
	}
	answer = strings.TrimSpace(answer)

	if answer == "" {
		answer = FallbackAnswer
	}
	res.AnswerText = answer
	return res
}

package chunk

import (
	"fmt"
	"strconv"

	"github.com/pdu3/AstarML/internal/model"
)

// Thread is one line of forums/threads.jsonl
type Thread struct {
	ThreadID string   `json:"thread_id"`
	Title    string   `json:"title"`
	Question string   `json:"question"`
	Answers  []Answer `json:"answers"`
}

// Answer is a reply in a Thread
type Answer struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Accepted  bool   `json:"accepted"`
	Upvotes   int    `json:"upvotes"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

// ForumThread emits the accepted answer merged with its question ("#qa"), or
// the bare question ("#q") when nothing was accepted, followed by one chunk
// per remaining answer.
func ForumThread(t Thread) []model.Evidence {
	base := "data/forums/" + t.ThreadID
	source := string(model.SourceForums)

	accepted := -1
	for i, a := range t.Answers {
		if a.Accepted {
			accepted = i
			break
		}
	}

	var out []model.Evidence
	if accepted >= 0 {
		a := t.Answers[accepted]
		out = append(out, model.Evidence{
			ID:     base + "#qa",
			Source: source,
			Text:   NormalizeSpace(fmt.Sprintf("Q: %s A: %s", t.Question, a.Text)),
			Meta:   answerMeta(t, a),
		})
	} else {
		out = append(out, model.Evidence{
			ID:     base + "#q",
			Source: source,
			Text:   NormalizeSpace("Q: " + t.Question),
			Meta: map[string]string{
				"thread_id": t.ThreadID,
				"title":     t.Title,
				"accepted":  "false",
				"upvotes":   "0",
			},
		})
	}

	for i, a := range t.Answers {
		if i == accepted {
			continue
		}
		id := a.ID
		if id == "" {
			id = "ans"
		}
		out = append(out, model.Evidence{
			ID:     base + "#" + id,
			Source: source,
			Text:   NormalizeSpace("Answer: " + a.Text),
			Meta:   answerMeta(t, a),
		})
	}
	return out
}

func answerMeta(t Thread, a Answer) map[string]string {
	meta := map[string]string{
		"thread_id": t.ThreadID,
		"title":     t.Title,
		"accepted":  strconv.FormatBool(a.Accepted),
		"upvotes":   strconv.Itoa(a.Upvotes),
		"author":    a.Author,
	}
	if a.Timestamp != "" {
		meta[model.MetaTimestamp] = a.Timestamp
	}
	return meta
}

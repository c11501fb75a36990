package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdu3/AstarML/internal/model"
)

type claimsEnvelope struct {
	Claims []map[string]any `json:"claims"`
}

// ParseClaimsJSON reads {"claims":[{"key":..,"val":..,"sent":..}]} out of a
// model response. Prose or code fences around the object are ignored; numeric
// and boolean values are converted to strings. Entries are returned as found,
// validation is left to Clean.
func ParseClaimsJSON(raw string) ([]model.Triple, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrUnavailable)
	}

	var env claimsEnvelope
	if err := json.Unmarshal([]byte(raw[start:end+1]), &env); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", ErrUnavailable, err)
	}

	triples := make([]model.Triple, 0, len(env.Claims))
	for _, c := range env.Claims {
		triples = append(triples, model.Triple{
			Key:      field(c, "key"),
			Value:    field(c, "val", "value"),
			Sentence: field(c, "sent", "sentence"),
		})
	}
	return triples, nil
}

// field returns the first present name as a string
func field(m map[string]any, names ...string) string {
	for _, name := range names {
		v, ok := m[name]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case string:
			return x
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(x)
		default:
			return fmt.Sprint(x)
		}
	}
	return ""
}

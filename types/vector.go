package types

const (
	MetricCosine = "cosine"
	MetricDot    = "dot"
)

// ChunkPayload is the chunk metadata persisted with every vector.
type ChunkPayload struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Page     int    `json:"page"`
	Language string `json:"language"`
	Type     string `json:"type"`
}

// Point is a single entry of the vector index. ID is the chunk id.
type Point struct {
	ID      string
	Vector  []float32
	Payload ChunkPayload
}

// RetrievalResult is a point returned by a similarity search. Higher scores
// mean closer matches.
type RetrievalResult struct {
	ID      string       `json:"id"`
	Payload ChunkPayload `json:"payload"`
	Score   float32      `json:"score"`
}

// CollectionSpec describes the vector layout of a collection.
type CollectionSpec struct {
	Dimension int
	Metric    string
}

// Condition matches payload field Key against Value for equality.
type Condition struct {
	Key   string
	Value interface{}
}

// Filter restricts a search to points whose payload satisfies every condition.
type Filter struct {
	Must []Condition
}

func (f *Filter) IsEmpty() bool {
	return f == nil || len(f.Must) == 0
}

// Matches reports whether payload satisfies the filter.
func (f *Filter) Matches(payload ChunkPayload) bool {
	if f.IsEmpty() {
		return true
	}
	for _, cond := range f.Must {
		switch cond.Key {
		case "source":
			if v, ok := cond.Value.(string); !ok || v != payload.Source {
				return false
			}
		case "language":
			if v, ok := cond.Value.(string); !ok || v != payload.Language {
				return false
			}
		case "type":
			if v, ok := cond.Value.(string); !ok || v != payload.Type {
				return false
			}
		case "page":
			if v, ok := toInt(cond.Value); !ok || v != payload.Page {
				return false
			}
		case "text":
			if v, ok := cond.Value.(string); !ok || v != payload.Text {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	default:
		return 0, false
	}
}

package analysis

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func TestGenerateEmbedding(t *testing.T) {
	Convey("GenerateEmbedding projects text onto a fixed-length vector", t, func() {
		Convey("output always has the configured dimensionality", func() {
			So(GenerateEmbedding(""), ShouldHaveLength, EmbeddingDim)
			So(GenerateEmbedding("user: hello world"), ShouldHaveLength, EmbeddingDim)
		})

		Convey("same input always yields the same vector", func() {
			text := "user: my api call fails\nassistant: which endpoint are you calling"
			a := GenerateEmbedding(text)
			b := GenerateEmbedding(text)
			So(a, ShouldResemble, b)
		})

		Convey("vectors are unit length when any token qualifies", func() {
			vec := GenerateEmbedding("user: hello there general kenobi")
			So(norm(vec), ShouldAlmostEqual, 1.0, 1e-6)
		})

		Convey("text with only short tokens produces the zero vector", func() {
			vec := GenerateEmbedding("a b c of to")
			So(norm(vec), ShouldEqual, 0)
			for _, v := range vec {
				So(v, ShouldEqual, 0)
			}
		})

		Convey("tokens of length two are excluded, three included", func() {
			So(norm(GenerateEmbedding("ab")), ShouldEqual, 0)
			So(norm(GenerateEmbedding("abc")), ShouldAlmostEqual, 1.0, 1e-6)
		})

		Convey("colliding words accumulate in one bucket", func() {
			// "abc" and "cba" share a character-code sum, so they land in the
			// same dimension and the vector still normalizes to unit length.
			vec := GenerateEmbedding("abc cba")
			nonzero := 0
			for _, v := range vec {
				if v != 0 {
					nonzero++
				}
			}
			So(nonzero, ShouldEqual, 1)
			So(norm(vec), ShouldAlmostEqual, 1.0, 1e-6)
		})

		Convey("different texts map to different vectors", func() {
			a := GenerateEmbedding("user: database migration failed")
			b := GenerateEmbedding("user: lovely weather today")
			So(a, ShouldNotResemble, b)
		})
	})
}

func TestConversationText(t *testing.T) {
	Convey("ConversationText flattens a transcript to role-prefixed lines", t, func() {
		msgs := []Message{
			user("hello"),
			assistant("hi, how can I help?"),
		}
		So(ConversationText(msgs), ShouldEqual, "user: hello\nassistant: hi, how can I help?")
		So(ConversationText(nil), ShouldEqual, "")
	})
}

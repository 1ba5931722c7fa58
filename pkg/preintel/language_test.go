package preintel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "english stopwords",
			text: "the cat and the dog are in the house",
			want: "en",
		},
		{
			name: "french stopwords",
			text: "le chat et la maison sont dans la rue",
			want: "fr",
		},
		{
			name: "spanish stopwords",
			text: "el perro y el gato en la casa",
			want: "es",
		},
		{
			name: "french with punctuation",
			text: "Bonjour, est-ce que la réunion est dans le bureau?",
			want: "fr",
		},
		{
			name: "no stopword signal",
			text: "xyzzy plugh qwerty asdf",
			want: "unknown",
		},
		{
			name: "empty input",
			text: "",
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestDetectLanguageSamplesPrefixOnly(t *testing.T) {
	// Signal past the first 50 tokens must not flip the result.
	long := "the cat and the dog are in the house "
	for i := 0; i < 45; i++ {
		long += "word "
	}
	for i := 0; i < 60; i++ {
		long += "le la et "
	}
	assert.Equal(t, "en", DetectLanguage(long))
}

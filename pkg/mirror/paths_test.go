package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseName(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "plain url",
			uri:  "https://images.dog.ceo/breeds/hound-afghan/n02088094_1003.jpg",
			want: "n02088094_1003.jpg",
		},
		{
			name: "query string stripped",
			uri:  "https://images.dog.ceo/breeds/pug/a.jpg?size=large",
			want: "a.jpg",
		},
		{
			name: "fragment stripped",
			uri:  "https://images.dog.ceo/breeds/pug/a.jpg#section",
			want: "a.jpg",
		},
		{
			name: "no path separators",
			uri:  "image.jpg",
			want: "image.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseName(tt.uri))
		})
	}
}

func TestRemoteFileName(t *testing.T) {
	t.Run("breed with sub-breed", func(t *testing.T) {
		name := RemoteFileName("hound", "afghan", "https://images.dog.ceo/breeds/hound-afghan/n02088094_1003.jpg")
		assert.Equal(t, "hound_afghan_n02088094_1003.jpg", name)
	})

	t.Run("breed without sub-breed drops the segment", func(t *testing.T) {
		name := RemoteFileName("pug", "", "https://images.dog.ceo/breeds/pug/a.jpg")
		assert.Equal(t, "pug_a.jpg", name)
	})
}

func TestRemotePath(t *testing.T) {
	assert.Equal(t, "/dog_breeds/pug_a.jpg", RemotePath("/dog_breeds", "pug_a.jpg"))
	assert.Equal(t, "/dog_breeds/pug_a.jpg", RemotePath("/dog_breeds/", "pug_a.jpg"))
}

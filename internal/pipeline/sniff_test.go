package pipeline

import "testing"

func TestDetectContentType(t *testing.T) {
	jpegHeader := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 8)...)
	pngHeader := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 4)...)
	webpHeader := []byte("RIFF\x10\x00\x00\x00WEBPVP8 ")

	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", jpegHeader, "image/jpeg"},
		{"png", pngHeader, "image/png"},
		{"webp", webpHeader, "image/webp"},
		{"unknown", []byte("GIF89a......"), "application/octet-stream"},
		{"short buffer", []byte{0xFF, 0xD8, 0xFF}, "application/octet-stream"},
		{"empty", nil, "application/octet-stream"},
	}
	for _, c := range cases {
		if got := DetectContentType(c.data); got != c.want {
			t.Fatalf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

// RIFF containers that are not WebP must not be misidentified.
func TestDetectContentTypeRIFFNonWebP(t *testing.T) {
	wav := []byte("RIFF\x10\x00\x00\x00WAVEfmt ")
	if got := DetectContentType(wav); got != "application/octet-stream" {
		t.Fatalf("expected octet-stream for WAV container, got %s", got)
	}
}

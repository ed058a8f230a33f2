package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"url", "Lihat https://t.co/abc123?x=1 sekarang", "lihat sekarang"},
		{"mention and hashtag", "@budi_01 banjir lagi #Jakarta #banjir2024", "banjir lagi"},
		{"emoji", "Hari ini 😀🚀 cerah ☀️", "hari ini cerah"},
		{"punctuation", "Waspada!!! Jalan, tergenang... (lagi)", "waspada jalan tergenang lagi"},
		{"punctuation between spaces", "a - b", "a b"},
		{"whitespace", "  Banyak\t\tspasi \n baris  ", "banyak spasi baris"},
		{"unicode letters kept", "Café Ñandú", "café ñandú"},
		{"only noise", "@a #b https://x.y 😀 !!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Clean(tt.in), "deterministic")
			assert.Equal(t, got, Clean(got), "idempotent")
		})
	}
}

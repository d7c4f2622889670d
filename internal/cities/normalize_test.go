package cities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	req := require.New(t)

	req.Equal("москва", Normalize("Москва"))
	req.Equal("москва", Normalize("  МОСКВА  "))
	req.Equal("орел", Normalize("Орёл"))
	req.Equal("ростовнадону", Normalize("Ростов-на-Дону"))
	req.Equal("санктпетербург", Normalize("Санкт Петербург"))
	req.Equal("йошкарола", Normalize("ЙОШКАР-ОЛА"))
}

func TestNormalizeDropsForeignRunes(t *testing.T) {
	req := require.New(t)

	req.Equal("", Normalize("New York"))
	req.Equal("", Normalize("123!?"))
	req.Equal("", Normalize(""))
	req.Equal("", Normalize("   "))
	// mixed input keeps only the Russian letters
	req.Equal("омск", Normalize("Омск (city)"))
}

func TestNormalizeIdempotent(t *testing.T) {
	req := require.New(t)

	inputs := []string{
		"Москва", "Орёл", "Ростов-на-Дону", "ЙОШКАР-ОЛА",
		"  казань  ", "abc", "", "Улан-Удэ", "ь", "ёж",
	}
	for _, in := range inputs {
		once := Normalize(in)
		req.Equal(once, Normalize(once), "not idempotent for %q", in)
	}
}

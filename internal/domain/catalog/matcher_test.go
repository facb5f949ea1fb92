package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edition(n int) *int { return &n }

func withBarcode(m *Magazine, barcode string) *Magazine {
	m.SetBarcode(barcode)
	return m
}

func TestFindMatchBarcode(t *testing.T) {
	matcher := NewMatcher(MatcherConfig{})

	t.Run("exact barcode wins over a dissimilar name", func(t *testing.T) {
		mag := withBarcode(NewMagazine("Quatro Rodas", 771), "9771234567003")
		snapshot := []*Magazine{mag}

		result := matcher.FindMatch(LineItem{
			Name:          "Nome Completamente Diferente",
			EditionNumber: edition(999),
			Barcode:       "9771234567003",
		}, snapshot)

		require.True(t, result.Found())
		assert.Equal(t, mag.ID, result.Magazine.ID)
		assert.Equal(t, 100, result.Score)
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		mag := withBarcode(NewMagazine("Veja", 2904), "9771234567003")

		result := matcher.FindMatch(LineItem{Name: "x", Barcode: "  9771234567003  "}, []*Magazine{mag})
		require.True(t, result.Found())
	})

	t.Run("unknown barcode falls through to fuzzy", func(t *testing.T) {
		mag := NewMagazine("Mundo Estranho", 203)

		result := matcher.FindMatch(LineItem{
			Name:          "Mundo Estranho",
			EditionNumber: edition(203),
			Barcode:       "9770000000000",
		}, []*Magazine{mag})

		require.True(t, result.Found())
		assert.Equal(t, mag.ID, result.Magazine.ID)
	})
}

func TestFindMatchFuzzy(t *testing.T) {
	matcher := NewMatcher(MatcherConfig{})

	t.Run("token order does not matter", func(t *testing.T) {
		mag := NewMagazine("Estranho Mundo", 203)

		result := matcher.FindMatch(LineItem{
			Name:          "Mundo Estranho",
			EditionNumber: edition(203),
		}, []*Magazine{mag})

		require.True(t, result.Found())
		assert.Equal(t, 100, result.Score)
	})

	t.Run("different edition never matches", func(t *testing.T) {
		mag := NewMagazine("Mundo Estranho", 203)

		result := matcher.FindMatch(LineItem{
			Name:          "Mundo Estranho",
			EditionNumber: edition(204),
		}, []*Magazine{mag})

		assert.False(t, result.Found())
	})

	t.Run("absent edition compares as zero", func(t *testing.T) {
		zeroEdition := NewMagazine("Almanaque Avulso", 0)

		result := matcher.FindMatch(LineItem{Name: "Almanaque Avulso"}, []*Magazine{zeroEdition})
		require.True(t, result.Found())
		assert.Equal(t, zeroEdition.ID, result.Magazine.ID)
	})

	t.Run("below threshold is a miss", func(t *testing.T) {
		mag := NewMagazine("Superinteressante", 451)

		result := matcher.FindMatch(LineItem{
			Name:          "Revista do Carro Esporte Clube",
			EditionNumber: edition(451),
		}, []*Magazine{mag})

		assert.False(t, result.Found())
	})

	t.Run("best of several candidates wins", func(t *testing.T) {
		closer := NewMagazine("Guia do Estudante Historia", 12)
		farther := NewMagazine("Guia do Estudante Geografia", 12)

		result := matcher.FindMatch(LineItem{
			Name:          "guia do estudante historia",
			EditionNumber: edition(12),
		}, []*Magazine{farther, closer})

		require.True(t, result.Found())
		assert.Equal(t, closer.ID, result.Magazine.ID)
	})

	t.Run("empty name never matches", func(t *testing.T) {
		mag := NewMagazine("Veja", 2904)

		result := matcher.FindMatch(LineItem{Name: "   ", EditionNumber: edition(2904)}, []*Magazine{mag})
		assert.False(t, result.Found())
	})
}

func TestFindMatchPremiumSuffix(t *testing.T) {
	matcher := NewMatcher(MatcherConfig{})

	t.Run("hardcover variant never matches the standard edition", func(t *testing.T) {
		standard := NewMagazine("Turma da Monica", 50)

		result := matcher.FindMatch(LineItem{
			Name:          "Turma da Monica Capa Dura",
			EditionNumber: edition(50),
		}, []*Magazine{standard})

		assert.False(t, result.Found())
	})

	t.Run("hardcover matches hardcover", func(t *testing.T) {
		hardcover := NewMagazine("Turma da Monica Capa Dura", 50)

		result := matcher.FindMatch(LineItem{
			Name:          "Turma da Monica capa dura",
			EditionNumber: edition(50),
		}, []*Magazine{hardcover})

		require.True(t, result.Found())
		assert.Equal(t, hardcover.ID, result.Magazine.ID)
	})

	t.Run("all suffix spellings are premium", func(t *testing.T) {
		for _, name := range []string{
			"Colecao X c.p dura",
			"Colecao X c.p. dura",
			"Colecao X Capa Dura",
			"Colecao X Deluxe",
		} {
			assert.True(t, hasPremiumSuffix(name), name)
		}
		assert.False(t, hasPremiumSuffix("Colecao X"))
	})
}

func TestFindMatchThresholdConfig(t *testing.T) {
	strict := NewMatcher(MatcherConfig{Threshold: 100})
	mag := NewMagazine("Mundo Estranho Especial", 1)

	result := strict.FindMatch(LineItem{
		Name:          "Mundo Estranho",
		EditionNumber: edition(1),
	}, []*Magazine{mag})
	assert.False(t, result.Found())

	loose := NewMatcher(MatcherConfig{Threshold: 60})
	result = loose.FindMatch(LineItem{
		Name:          "Mundo Estranho",
		EditionNumber: edition(1),
	}, []*Magazine{mag})
	assert.True(t, result.Found())
}

func TestTokenSortScorer(t *testing.T) {
	scorer := TokenSortScorer{}

	assert.Equal(t, 100, scorer.Score("mundo estranho", "mundo estranho"))
	assert.Equal(t, 100, scorer.Score("mundo estranho", "estranho mundo"))
	assert.Greater(t, scorer.Score("mundo estranho", "mundo estranh"), 85)
	assert.Less(t, scorer.Score("mundo estranho", "quatro rodas"), 50)
}
